package services

import "math"

// ComputeBMI expects height in centimeters and weight in kilograms and
// rounds to one decimal. The second result is false when either input is
// missing, non-positive, or not a finite number.
func ComputeBMI(heightCm float64, weightKg float64) (float64, bool) {
	if !isPositiveFinite(heightCm) || !isPositiveFinite(weightKg) {
		return 0, false
	}
	meters := heightCm / 100
	return roundTo(weightKg/(meters*meters), 1), true
}

func BMICategory(bmi float64) string {
	switch {
	case bmi <= 0:
		return ""
	case bmi < 18.5:
		return "underweight"
	case bmi < 25:
		return "normal"
	case bmi < 30:
		return "overweight"
	case bmi < 35:
		return "obesity_1"
	case bmi < 40:
		return "obesity_2"
	default:
		return "obesity_3"
	}
}

func isPositiveFinite(value float64) bool {
	return value > 0 && !math.IsInf(value, 0) && !math.IsNaN(value)
}

func roundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}

func isFinite(value float64) bool {
	return !math.IsInf(value, 0) && !math.IsNaN(value)
}
