package domain

import "errors"

// ErrImplausibleBody is returned for body measurements outside human range.
var ErrImplausibleBody = errors.New("height/weight out of plausible range")

// BMI returns the body-mass index for a height in centimeters and a weight
// in kilograms.
func BMI(heightCm, weightKg float64) (float64, error) {
	if heightCm < minHeightCm || heightCm > maxHeightCm || weightKg < minWeightKg || weightKg > maxWeightKg {
		return 0, ErrImplausibleBody
	}
	h := heightCm / 100
	return weightKg / (h * h), nil
}

// BMICategory returns the WHO category label for a BMI value.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "underweight"
	case bmi < 25:
		return "normal"
	case bmi < 30:
		return "overweight"
	default:
		return "obese"
	}
}
