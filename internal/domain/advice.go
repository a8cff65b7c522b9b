package domain

import "time"

// RecommendationKind tags what a Recommendation suggests.
type RecommendationKind string

const (
	RecommendFood    RecommendationKind = "food"
	RecommendRecipe  RecommendationKind = "recipe"
	RecommendInsight RecommendationKind = "insight"
)

// Valid reports whether k is a known kind.
func (k RecommendationKind) Valid() bool {
	return k == RecommendFood || k == RecommendRecipe || k == RecommendInsight
}

// Recipe is attached to recipe recommendations.
type Recipe struct {
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
}

// Recommendation is one piece of goal-directed advice.
type Recommendation struct {
	Kind        RecommendationKind `json:"type"`
	Goal        GoalTag            `json:"goal"`
	Title       string             `json:"title"`
	Subtitle    string             `json:"subtitle"`
	Description string             `json:"description"`
	Foods       []string           `json:"foods,omitempty"`
	Recipe      *Recipe            `json:"recipe,omitempty"`
}

// SymptomAnalysis links logged symptoms to possible dietary causes.
type SymptomAnalysis struct {
	Analysis        string   `json:"analysis"`
	PossibleCauses  []string `json:"possibleCauses"`
	Recommendations []string `json:"recommendations"`
}

// AdviceInput is the recent history advice is derived from.
type AdviceInput struct {
	Goals    []GoalTag
	Foods    []FoodEntry
	Symptoms []SymptomEntry
}

// Export is a complete copy of a user's data.
type Export struct {
	User       ExportUser     `json:"user"`
	Profile    *UserProfile   `json:"profile"`
	Entries    []FoodEntry    `json:"entries"`
	Weights    []WeightEntry  `json:"weights"`
	Symptoms   []SymptomEntry `json:"symptoms"`
	ExportedAt time.Time      `json:"exportDate"`
}

// ExportUser identifies the owner of an Export.
type ExportUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
