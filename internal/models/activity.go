package models

import "time"

// Типы приёмов пищи.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// Источник записи о еде.
const (
	SourceManual  = "manual"
	SourceAIPhoto = "ai_photo"
	SourceSearch  = "search"
)

// FoodLog — запись дневника питания.
type FoodLog struct {
	ID       string    `json:"id"`
	UserUID  string    `json:"-"`
	LoggedAt time.Time `json:"logged_at"`
	MealType string    `json:"meal_type"`
	FoodName string    `json:"food_name"`
	Calories float64   `json:"calories"`
	ProteinG float64   `json:"protein_g"`
	FatG     float64   `json:"fat_g"`
	CarbsG   float64   `json:"carbs_g"`
	WeightG  float64   `json:"weight_g"`
	Source   string    `json:"source"`
}

// Workout — отметка о тренировке, не больше одной на дату.
type Workout struct {
	ID          string    `json:"id"`
	UserUID     string    `json:"-"`
	WorkoutDate time.Time `json:"workout_date"`
	Completed   bool      `json:"completed"`
	Notes       string    `json:"notes"`
	XPAwarded   int       `json:"xp_awarded"`
}

// WeightLog — замер веса, не больше одного на дату.
type WeightLog struct {
	ID         string    `json:"id"`
	UserUID    string    `json:"-"`
	WeightKg   float64   `json:"weight_kg"`
	LoggedDate time.Time `json:"logged_date"`
}

// DummyFoodLog используется для приёма записи о еде из JSON-запроса.
type DummyFoodLog struct {
	FoodName string  `json:"food_name" validate:"required,max=200"`
	Calories float64 `json:"calories" validate:"gte=0"`
	ProteinG float64 `json:"protein_g" validate:"gte=0"`
	FatG     float64 `json:"fat_g" validate:"gte=0"`
	CarbsG   float64 `json:"carbs_g" validate:"gte=0"`
	WeightG  float64 `json:"weight_g" validate:"gte=0"`
	MealType string  `json:"meal_type" validate:"omitempty,oneof=breakfast lunch dinner snack"`
	Source   string  `json:"source" validate:"omitempty,oneof=manual ai_photo search"`
}

// DummyWorkout используется для приёма тренировки из JSON-запроса.
// Дата приходит строкой в формате 2006-01-02.
type DummyWorkout struct {
	WorkoutDate string `json:"workout_date" validate:"required"`
	Completed   *bool  `json:"completed"`
	Notes       string `json:"notes" validate:"max=300"`
}

// DummyWeightLog используется для приёма замера веса из JSON-запроса.
type DummyWeightLog struct {
	WeightKg   float64 `json:"weight_kg" validate:"required,gt=0,lt=500"`
	LoggedDate string  `json:"logged_date"`
}

// DummyOnboarding — параметры тела из мастера онбординга.
type DummyOnboarding struct {
	Goal           string   `json:"goal" validate:"required,oneof=cut bulk maintain"`
	Gender         string   `json:"gender" validate:"required,oneof=male female"`
	Age            int      `json:"age" validate:"required,gt=0,lt=120"`
	WeightKg       float64  `json:"weight_kg" validate:"required,gt=0"`
	HeightCm       float64  `json:"height_cm" validate:"required,gt=0"`
	TargetWeightKg *float64 `json:"target_weight_kg" validate:"omitempty,gt=0"`
	ActivityLevel  string   `json:"activity_level" validate:"required,oneof=sedentary moderate active athlete"`
}
