package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Sex is the biological sex used by the BMR formula.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Valid reports whether s is a recognised value.
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

// ActivityLevel describes how active a user is during a typical day.
type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityActive    ActivityLevel = "active"
	ActivityExtreme   ActivityLevel = "extreme"
)

// Valid reports whether a is one of the known activity levels.
func (a ActivityLevel) Valid() bool {
	_, ok := activityFactors[a]
	return ok
}

// GoalTag is a user-selected objective that perturbs target computation.
type GoalTag string

const (
	GoalMuscle      GoalTag = "muscle"
	GoalDiet        GoalTag = "diet"
	GoalLongevity   GoalTag = "longevity"
	GoalAcne        GoalTag = "acne"
	GoalEnergy      GoalTag = "energy"
	GoalPerformance GoalTag = "performance"
)

// AllGoalTags lists every goal tag in a stable order.
var AllGoalTags = []GoalTag{GoalMuscle, GoalDiet, GoalLongevity, GoalAcne, GoalEnergy, GoalPerformance}

// Valid reports whether g is a known goal tag.
func (g GoalTag) Valid() bool {
	for _, t := range AllGoalTags {
		if t == g {
			return true
		}
	}
	return false
}

// GoalSet is an unordered set of goal tags. The zero value is an empty set.
type GoalSet map[GoalTag]struct{}

// NewGoalSet builds a set from tags, ignoring duplicates.
func NewGoalSet(tags ...GoalTag) GoalSet {
	s := make(GoalSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether tag is in the set.
func (s GoalSet) Has(tag GoalTag) bool {
	_, ok := s[tag]
	return ok
}

// Tags returns the members in AllGoalTags order.
func (s GoalSet) Tags() []GoalTag {
	out := make([]GoalTag, 0, len(s))
	for _, t := range AllGoalTags {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// MarshalJSON encodes the set as a sorted array of tags.
func (s GoalSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Tags())
}

// UnmarshalJSON decodes an array of tags, rejecting unknown ones.
func (s *GoalSet) UnmarshalJSON(b []byte) error {
	var tags []GoalTag
	if err := json.Unmarshal(b, &tags); err != nil {
		return err
	}
	set := make(GoalSet, len(tags))
	for _, t := range tags {
		if !t.Valid() {
			return fmt.Errorf("unknown goal %q", t)
		}
		set[t] = struct{}{}
	}
	*s = set
	return nil
}

// UserProfile holds the biometric data and objectives a user has entered.
// Any field may be unset.
type UserProfile struct {
	UserID    int64          `json:"userId"`
	HeightCm  *float64       `json:"heightCm"`
	WeightKg  *float64       `json:"weightKg"`
	AgeYears  *float64       `json:"ageYears"`
	Sex       *Sex           `json:"sex"`
	Activity  *ActivityLevel `json:"activityLevel"`
	Goals     GoalSet        `json:"goals"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Plausible ranges for body measurements. Values outside them count as missing.
const (
	minHeightCm = 50
	maxHeightCm = 250
	minWeightKg = 10
	maxWeightKg = 400
	minAgeYears = 1
	maxAgeYears = 120
)

// Normalize clears numeric fields that are not finite or fall outside a
// plausible human range, and enum fields holding unknown values, so that
// they count as missing.
func (p *UserProfile) Normalize() {
	p.HeightCm = inRangeOrNil(p.HeightCm, minHeightCm, maxHeightCm)
	p.WeightKg = inRangeOrNil(p.WeightKg, minWeightKg, maxWeightKg)
	p.AgeYears = inRangeOrNil(p.AgeYears, minAgeYears, maxAgeYears)
	if p.Sex != nil && !p.Sex.Valid() {
		p.Sex = nil
	}
	if p.Activity != nil && !p.Activity.Valid() {
		p.Activity = nil
	}
	if p.Goals == nil {
		p.Goals = GoalSet{}
	}
}

// Complete reports whether the fields the BMR formula needs are all present.
func (p *UserProfile) Complete() bool {
	return p != nil &&
		inRange(p.HeightCm, minHeightCm, maxHeightCm) &&
		inRange(p.WeightKg, minWeightKg, maxWeightKg) &&
		inRange(p.AgeYears, minAgeYears, maxAgeYears) &&
		p.Sex != nil && p.Sex.Valid()
}

func inRange(v *float64, lo, hi float64) bool {
	return v != nil && !math.IsNaN(*v) && *v >= lo && *v <= hi
}

func inRangeOrNil(v *float64, lo, hi float64) *float64 {
	if !inRange(v, lo, hi) {
		return nil
	}
	return v
}

// ProfileRepository is the port for profile persistence.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID int64) (*UserProfile, error)
	SaveProfile(ctx context.Context, p *UserProfile) error
}
