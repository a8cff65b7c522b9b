package domain

const kgToLb = 2.2046226218

// Weight units accepted by the weight log.
const (
	UnitKg = "kg"
	UnitLb = "lb"
)

// ValidWeightUnit reports whether unit is "kg" or "lb".
func ValidWeightUnit(unit string) bool {
	return unit == UnitKg || unit == UnitLb
}

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	switch {
	case from == to:
		return v
	case from == UnitKg && to == UnitLb:
		return v * kgToLb
	case from == UnitLb && to == UnitKg:
		return v / kgToLb
	}
	return v
}
