package domain

import (
	"context"
	"math"
	"time"
)

// Nutrients is the macro breakdown of a meal or a day.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Add returns the element-wise sum of n and o.
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
	}
}

// Valid reports whether every value is finite and non-negative.
func (n Nutrients) Valid() bool {
	for _, v := range []float64{n.Calories, n.Protein, n.Carbs, n.Fat} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return true
}

// FoodEntry is a single logged meal.
type FoodEntry struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Description string    `json:"description"`
	Day         string    `json:"day"`
	Time        string    `json:"time"`
	Nutrients   Nutrients `json:"nutrients"`
	Analysis    string    `json:"analysis"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FoodPatch carries the fields of a partial update. Nil fields are left
// unchanged.
type FoodPatch struct {
	Description *string    `json:"description,omitempty"`
	Day         *string    `json:"day,omitempty"`
	Time        *string    `json:"time,omitempty"`
	Nutrients   *Nutrients `json:"nutrients,omitempty"`
	Analysis    *string    `json:"analysis,omitempty"`
}

// Apply copies the set fields of p onto e.
func (p FoodPatch) Apply(e *FoodEntry) {
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Day != nil {
		e.Day = *p.Day
	}
	if p.Time != nil {
		e.Time = *p.Time
	}
	if p.Nutrients != nil {
		e.Nutrients = *p.Nutrients
	}
	if p.Analysis != nil {
		e.Analysis = *p.Analysis
	}
}

// FoodRepository is the port for food log persistence.
type FoodRepository interface {
	AddFoodEntry(ctx context.Context, e FoodEntry) (int64, error)
	GetFoodEntry(ctx context.Context, userID, id int64) (*FoodEntry, error)
	UpdateFoodEntry(ctx context.Context, e FoodEntry) error
	DeleteFoodEntry(ctx context.Context, userID, id int64) (bool, error)
	ListFoodForDay(ctx context.Context, userID int64, day string) ([]FoodEntry, error)
	ListRecentFood(ctx context.Context, userID int64, limit int) ([]FoodEntry, error)
}

// NutritionEstimate is what an estimator returns for a free-text meal
// description.
type NutritionEstimate struct {
	Nutrients Nutrients `json:"nutrients"`
	Analysis  string    `json:"analysis"`
}
