package norms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Norms
	}{
		{
			// bmr = 800 + 1125 - 150 + 5 = 1780; tdee = 2447.5; cut -> 1958
			name: "male moderate cut",
			in:   Params{Gender: "male", WeightKg: 80, HeightCm: 180, Age: 30, ActivityLevel: "moderate", Goal: "cut"},
			want: Norms{Calories: 1958, ProteinG: 160, FatG: 54, CarbsG: 208},
		},
		{
			// bmr = 600 + 1031.25 - 125 - 161 = 1345.25; *1.2 = 1614.3
			name: "female sedentary maintain",
			in:   Params{Gender: "female", WeightKg: 60, HeightCm: 165, Age: 25, ActivityLevel: "sedentary", Goal: "maintain"},
			want: Norms{Calories: 1614, ProteinG: 120, FatG: 45, CarbsG: 182},
		},
		{
			name: "unknown activity and goal fall back",
			in:   Params{Gender: "female", WeightKg: 60, HeightCm: 165, Age: 25, ActivityLevel: "unknown", Goal: "unknown"},
			want: Norms{Calories: 1614, ProteinG: 120, FatG: 45, CarbsG: 182},
		},
		{
			name: "carbs clamped at zero",
			in:   Params{Gender: "female", WeightKg: 150, HeightCm: 100, Age: 90, ActivityLevel: "sedentary", Goal: "cut"},
			want: Norms{Calories: 1453, ProteinG: 300, FatG: 40, CarbsG: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Calculate(tt.in))
		})
	}
}
