package app

import (
	"context"
	"time"

	"nutramind/internal/domain"
)

// AnalyticsService builds dashboard and chart data.
type AnalyticsService struct {
	food     *FoodService
	profiles *ProfileService
	weights  domain.WeightRepository
	now      func() time.Time
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(food *FoodService, profiles *ProfileService, weights domain.WeightRepository) *AnalyticsService {
	return &AnalyticsService{food: food, profiles: profiles, weights: weights, now: time.Now}
}

// WithClock replaces the clock used to determine "today".
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

// Progress compares consumption against a goal. Percent is clamped to [0, 1]
// and is 0 when the goal is not positive.
type Progress struct {
	Consumed float64 `json:"consumed"`
	Goal     float64 `json:"goal"`
	Percent  float64 `json:"percent"`
}

func newProgress(consumed float64, goal int) Progress {
	g := float64(goal)
	p := Progress{Consumed: consumed, Goal: g}
	if g > 0 {
		p.Percent = consumed / g
		if p.Percent > 1 {
			p.Percent = 1
		}
		if p.Percent < 0 {
			p.Percent = 0
		}
	}
	return p
}

// DaySummary is the dashboard view of a single day.
type DaySummary struct {
	Day      string              `json:"day"`
	Consumed domain.Nutrients    `json:"consumed"`
	Targets  domain.DailyTargets `json:"targets"`
	Progress map[string]Progress `json:"progress"`
}

// Today returns consumption, targets and progress for the current local day.
func (s *AnalyticsService) Today(ctx context.Context, userID int64) (*DaySummary, error) {
	day := localDay(s.now())
	consumed, err := s.food.DayTotals(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	targets, err := s.profiles.Targets(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &DaySummary{
		Day:      day,
		Consumed: consumed,
		Targets:  targets,
		Progress: map[string]Progress{
			"calories": newProgress(consumed.Calories, targets.Calories),
			"protein":  newProgress(consumed.Protein, targets.Protein),
			"carbs":    newProgress(consumed.Carbs, targets.Carbs),
			"fat":      newProgress(consumed.Fat, targets.Fat),
		},
	}, nil
}

// DayTotal is one point of the weekly series.
type DayTotal struct {
	Day string `json:"day"`
	domain.Nutrients
}

// Week returns per-day nutrient totals for the last days days, oldest first.
// Days without entries are zero-filled.
func (s *AnalyticsService) Week(ctx context.Context, userID int64, days int) ([]DayTotal, error) {
	days = clampDays(days)
	today := s.now().In(time.Local)
	out := make([]DayTotal, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(dayLayout)
		n, err := s.food.DayTotals(ctx, userID, day)
		if err != nil {
			return nil, err
		}
		out = append(out, DayTotal{Day: day, Nutrients: n})
	}
	return out, nil
}

// WeightPoint is one point of the weight series; Value is nil on days
// without a measurement.
type WeightPoint struct {
	Day   string   `json:"day"`
	Value *float64 `json:"value"`
	Unit  string   `json:"unit"`
}

// WeightSeries returns the latest weight per day for the last days days,
// converted to unit.
func (s *AnalyticsService) WeightSeries(ctx context.Context, userID int64, days int, unit string) ([]WeightPoint, error) {
	if !domain.ValidWeightUnit(unit) {
		return nil, invalid("unit must be \"kg\" or \"lb\"")
	}
	days = clampDays(days)
	today := s.now().In(time.Local)
	points := make([]WeightPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(dayLayout)
		entry, err := s.weights.LatestWeightForLocalDay(ctx, userID, day)
		if err != nil {
			return nil, err
		}
		p := WeightPoint{Day: day, Unit: unit}
		if entry != nil {
			v := entry.In(unit)
			p.Value = &v
		}
		points = append(points, p)
	}
	return points, nil
}

func clampDays(days int) int {
	if days < 1 {
		return 1
	}
	if days > 366 {
		return 366
	}
	return days
}
