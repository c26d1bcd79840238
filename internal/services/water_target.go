package services

import "math"

const (
	DefaultWaterPortionML = 200
	waterMLPerKg          = 35

	maxWaterTargetWeightKg = 500
)

// WaterTargetForWeight rounds weight × 35 ml down to whole portions, never
// below one portion. 95 kg with 200 ml glasses gives 3200 ml.
func WaterTargetForWeight(weightKg float64, portionML int) (int, bool) {
	if !isPositiveFinite(weightKg) || weightKg > maxWaterTargetWeightKg {
		return 0, false
	}
	if portionML <= 0 {
		portionML = DefaultWaterPortionML
	}
	portions := int(math.Floor(weightKg * waterMLPerKg / float64(portionML)))
	if portions < 1 {
		portions = 1
	}
	return portions * portionML, true
}
