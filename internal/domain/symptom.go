package domain

import (
	"context"
	"time"
)

// SymptomEntry records how a user felt on a given day, keyed by category
// (e.g. "skin" -> "mild breakout").
type SymptomEntry struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"userId"`
	Day        string            `json:"day"`
	Categories map[string]string `json:"categories"`
	Notes      string            `json:"notes,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// SymptomRepository is the port for symptom persistence.
type SymptomRepository interface {
	AddSymptom(ctx context.Context, e SymptomEntry) (int64, error)
	DeleteSymptom(ctx context.Context, userID, id int64) (bool, error)
	ListRecentSymptoms(ctx context.Context, userID int64, limit int) ([]SymptomEntry, error)
}
