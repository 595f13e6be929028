// Package norms рассчитывает суточные нормы КБЖУ по формуле Миффлина-Сан Жеора.
package norms

import "math"

// Norms — суточные нормы калорий и макронутриентов.
type Norms struct {
	Calories int `json:"daily_calories"`
	ProteinG int `json:"daily_protein_g"`
	FatG     int `json:"daily_fat_g"`
	CarbsG   int `json:"daily_carbs_g"`
}

var activityMultipliers = map[string]float64{
	"sedentary": 1.2,
	"moderate":  1.375,
	"active":    1.55,
	"athlete":   1.725,
}

var goalFactors = map[string]float64{
	"cut":      0.80,
	"maintain": 1.00,
	"bulk":     1.15,
}

// Params — параметры тела для расчёта.
type Params struct {
	Gender        string
	WeightKg      float64
	HeightCm      float64
	Age           int
	ActivityLevel string
	Goal          string
}

// Calculate возвращает нормы. Неизвестный уровень активности считается
// как sedentary, неизвестная цель как maintain. Округление банковское.
func Calculate(p Params) Norms {
	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Gender == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}

	mult, ok := activityMultipliers[p.ActivityLevel]
	if !ok {
		mult = 1.2
	}
	factor, ok := goalFactors[p.Goal]
	if !ok {
		factor = 1.0
	}

	calories := int(math.RoundToEven(bmr * mult * factor))
	protein := int(math.RoundToEven(p.WeightKg * 2))
	fat := int(math.RoundToEven(float64(calories) * 0.25 / 9))
	carbs := int(math.RoundToEven(float64(calories-protein*4-fat*9) / 4))

	return Norms{
		Calories: calories,
		ProteinG: protein,
		FatG:     fat,
		CarbsG:   max(0, carbs),
	}
}
