package app

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"nutramind/internal/domain"
)

// TextGenerator produces free text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// FallbackInsight is shown whenever an insight cannot be generated.
const FallbackInsight = "Keep up the great work with your nutrition tracking! Consistency is key to reaching your health goals."

// InsightService produces short coaching messages from recent nutrition data.
type InsightService struct {
	gen       TextGenerator
	analytics *AnalyticsService
	profiles  *ProfileService
	log       zerolog.Logger
}

// NewInsightService creates an InsightService. gen may be nil.
func NewInsightService(gen TextGenerator, analytics *AnalyticsService, profiles *ProfileService, log zerolog.Logger) *InsightService {
	return &InsightService{gen: gen, analytics: analytics, profiles: profiles, log: log}
}

// Daily returns an insight about today's intake. It never fails.
func (s *InsightService) Daily(ctx context.Context, userID int64) string {
	today, err := s.analytics.Today(ctx, userID)
	if err != nil {
		return s.fallback(err, userID)
	}
	c := today.Consumed
	data := fmt.Sprintf("Today's intake: %.0f calories, %.0fg protein, %.0fg carbs, %.0fg fat (targets: %d kcal, %dg protein)",
		c.Calories, c.Protein, c.Carbs, c.Fat, today.Targets.Calories, today.Targets.Protein)
	return s.generate(ctx, userID, "today", data)
}

// Weekly returns an insight about the last seven days. It never fails.
func (s *InsightService) Weekly(ctx context.Context, userID int64) string {
	week, err := s.analytics.Week(ctx, userID, 7)
	if err != nil {
		return s.fallback(err, userID)
	}
	var sum float64
	for _, d := range week {
		sum += d.Calories
	}
	avg := math.Round(sum / float64(len(week)))
	return s.generate(ctx, userID, "this week", fmt.Sprintf("Weekly average: %.0f calories", avg))
}

func (s *InsightService) generate(ctx context.Context, userID int64, timeframe, data string) string {
	if s.gen == nil {
		return FallbackInsight
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return s.fallback(err, userID)
	}
	text, err := s.gen.Generate(ctx, insightPrompt(p, timeframe, data))
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		return s.fallback(err, userID)
	}
	return text
}

func (s *InsightService) fallback(err error, userID int64) string {
	s.log.Warn().Err(err).Int64("user", userID).Msg("insight generation failed, using fallback")
	return FallbackInsight
}

func insightPrompt(p *domain.UserProfile, timeframe, data string) string {
	goals := make([]string, 0, len(p.Goals))
	for _, g := range p.Goals.Tags() {
		goals = append(goals, string(g))
	}
	age := "not specified"
	if p.AgeYears != nil {
		age = fmt.Sprintf("%.0f", *p.AgeYears)
	}
	activity := string(domain.ActivityModerate)
	if p.Activity != nil {
		activity = string(*p.Activity)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a personalized health insight for a user with these goals: %s\n\n", strings.Join(goals, ", "))
	fmt.Fprintf(&b, "User profile:\n- Age: %s\n- Activity level: %s\n\n", age, activity)
	fmt.Fprintf(&b, "Nutrition data %s:\n%s\n\n", timeframe, data)
	b.WriteString("Provide a single, actionable, encouraging health insight (1-2 sentences) that references their current nutrition patterns. Return only the insight text.")
	return b.String()
}
