package domain

import (
	"context"
	"errors"
	"math"
	"time"
)

// MaxWeightValue bounds a single measurement in either unit.
const MaxWeightValue = 1500

// WeightEntry is one weigh-in. Day is the local calendar day of CreatedAt.
type WeightEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Day       string    `json:"day"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"createdAt"`
}

// In returns the measurement converted to unit.
func (e WeightEntry) In(unit string) float64 {
	return ConvertWeight(e.Value, e.Unit, unit)
}

// Kg returns the measurement in kilograms, the unit the profile and the Goal
// Engine use.
func (e WeightEntry) Kg() float64 { return e.In(UnitKg) }

// ValidateWeight checks a raw measurement before it is stored.
func ValidateWeight(value float64, unit string) error {
	if math.IsNaN(value) || value <= 0 || value > MaxWeightValue {
		return errors.New("value must be > 0 and at most 1500")
	}
	if !ValidWeightUnit(unit) {
		return errors.New(`unit must be "kg" or "lb"`)
	}
	return nil
}

// WeightRepository is the port for weight persistence. Events are never
// edited; a correction is a delete followed by a new event.
type WeightRepository interface {
	AddWeightEvent(ctx context.Context, userID int64, value float64, unit string, createdAt time.Time) (int64, error)
	DeleteWeightEvent(ctx context.Context, userID, id int64) (bool, error)
	DeleteLatestWeightEvent(ctx context.Context, userID int64) (bool, error)
	// LatestWeightForLocalDay returns nil when nothing was logged that day.
	LatestWeightForLocalDay(ctx context.Context, userID int64, localDay string) (*WeightEntry, error)
	// ListRecentWeightEvents returns newest first.
	ListRecentWeightEvents(ctx context.Context, userID int64, limit int) ([]WeightEntry, error)
}
