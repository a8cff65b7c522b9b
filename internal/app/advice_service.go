package app

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"nutramind/internal/domain"
)

// Advisor turns recent history into structured advice.
type Advisor interface {
	Recommend(ctx context.Context, in domain.AdviceInput) ([]domain.Recommendation, error)
	AnalyzeSymptoms(ctx context.Context, in domain.AdviceInput) (*domain.SymptomAnalysis, error)
	SuggestFoods(ctx context.Context, partial string) ([]string, error)
}

const (
	adviceFoodLimit    = 20
	adviceSymptomLimit = 10
	maxSuggestions     = 5
	minSuggestRunes    = 2
)

// FallbackSymptomAnalysis is returned whenever symptoms cannot be analyzed.
var FallbackSymptomAnalysis = domain.SymptomAnalysis{
	Analysis: "Your symptoms and eating habits may be related in ways worth a closer look. A more detailed analysis needs the AI service.",
	PossibleCauses: []string{
		"Intolerance to particular foods",
		"A high share of processed foods",
		"Too little fluid intake",
	},
	Recommendations: []string{
		"Keep a food diary to spot patterns",
		"Drink at least 2 liters of water a day",
		"Favor whole foods over processed ones",
	},
}

// AdviceService produces recommendations, symptom analyses and food
// suggestions. Every method degrades to a fixed answer when the advisor is
// missing or fails.
type AdviceService struct {
	advisor  Advisor
	food     *FoodService
	symptoms *SymptomService
	profiles *ProfileService
	log      zerolog.Logger
}

// NewAdviceService creates an AdviceService. advisor may be nil.
func NewAdviceService(advisor Advisor, food *FoodService, symptoms *SymptomService, profiles *ProfileService, log zerolog.Logger) *AdviceService {
	return &AdviceService{advisor: advisor, food: food, symptoms: symptoms, profiles: profiles, log: log}
}

func (s *AdviceService) history(ctx context.Context, userID int64) (domain.AdviceInput, error) {
	var in domain.AdviceInput
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return in, err
	}
	in.Goals = p.Goals.Tags()
	if in.Foods, err = s.food.ListRecent(ctx, userID, adviceFoodLimit); err != nil {
		return in, err
	}
	if in.Symptoms, err = s.symptoms.ListRecent(ctx, userID, adviceSymptomLimit); err != nil {
		return in, err
	}
	return in, nil
}

// Recommendations returns goal-directed advice for userID. It never fails.
func (s *AdviceService) Recommendations(ctx context.Context, userID int64) []domain.Recommendation {
	in, err := s.history(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Int64("user", userID).Msg("load history for recommendations")
		return fallbackRecommendations(nil)
	}
	if s.advisor == nil {
		return fallbackRecommendations(in.Goals)
	}
	recs, err := s.advisor.Recommend(ctx, in)
	if err == nil {
		recs = cleanRecommendations(recs, in.Goals)
	}
	if err != nil || len(recs) == 0 {
		s.log.Warn().Err(err).Int64("user", userID).Msg("recommendations failed, using fallback")
		return fallbackRecommendations(in.Goals)
	}
	return recs
}

// cleanRecommendations drops entries without a known kind or a title and
// pins every goal to one the user actually holds.
func cleanRecommendations(recs []domain.Recommendation, goals []domain.GoalTag) []domain.Recommendation {
	held := domain.NewGoalSet(goals...)
	out := make([]domain.Recommendation, 0, len(recs))
	for _, r := range recs {
		if !r.Kind.Valid() || strings.TrimSpace(r.Title) == "" {
			continue
		}
		if !held.Has(r.Goal) {
			r.Goal = ""
			if len(goals) > 0 {
				r.Goal = goals[0]
			}
		}
		if r.Kind != domain.RecommendFood {
			r.Foods = nil
		}
		if r.Kind != domain.RecommendRecipe {
			r.Recipe = nil
		}
		out = append(out, r)
	}
	return out
}

func fallbackRecommendations(goals []domain.GoalTag) []domain.Recommendation {
	first, second := domain.GoalMuscle, domain.GoalAcne
	if len(goals) > 0 {
		first = goals[0]
	}
	if len(goals) > 1 {
		second = goals[1]
	}
	return []domain.Recommendation{
		{
			Kind:        domain.RecommendFood,
			Goal:        first,
			Title:       "Protein-rich foods",
			Subtitle:    "For steady muscle building",
			Description: "Work these protein-rich foods into your meals. They supply high-quality protein with all essential amino acids.",
			Foods:       []string{"Chicken breast", "Tuna", "Low-fat quark", "Eggs", "Lentils", "Tofu"},
		},
		{
			Kind:        domain.RecommendRecipe,
			Goal:        second,
			Title:       "Omega-3 salmon bowl",
			Subtitle:    "For clear skin",
			Description: "Rich in omega-3 fatty acids and antioxidants that can calm inflammation and support skin health.",
			Recipe: &domain.Recipe{
				Ingredients:  []string{"150g wild salmon", "1 cup quinoa", "1 avocado", "Handful of spinach", "1 tbsp olive oil", "Lemon juice"},
				Instructions: "Bake the salmon, cook the quinoa, arrange everything in a bowl and dress with olive oil and lemon juice.",
			},
		},
	}
}

// AnalyzeSymptoms relates recent symptoms to recent meals. Without logged
// symptoms, an advisor or a usable answer it returns
// FallbackSymptomAnalysis. It never fails.
func (s *AdviceService) AnalyzeSymptoms(ctx context.Context, userID int64) domain.SymptomAnalysis {
	in, err := s.history(ctx, userID)
	if err != nil || len(in.Symptoms) == 0 || s.advisor == nil {
		if err != nil {
			s.log.Warn().Err(err).Int64("user", userID).Msg("load history for symptom analysis")
		}
		return FallbackSymptomAnalysis
	}
	a, err := s.advisor.AnalyzeSymptoms(ctx, in)
	if err != nil || a == nil || strings.TrimSpace(a.Analysis) == "" {
		s.log.Warn().Err(err).Int64("user", userID).Msg("symptom analysis failed, using fallback")
		return FallbackSymptomAnalysis
	}
	if a.PossibleCauses == nil {
		a.PossibleCauses = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	return *a
}

// SuggestFoods returns up to five food names matching partial. When the
// advisor is unavailable the user's own recent meals are searched instead.
// Queries shorter than two characters yield no suggestions.
func (s *AdviceService) SuggestFoods(ctx context.Context, userID int64, partial string) []string {
	partial = strings.TrimSpace(partial)
	if utf8.RuneCountInString(partial) < minSuggestRunes {
		return []string{}
	}
	if s.advisor != nil {
		names, err := s.advisor.SuggestFoods(ctx, partial)
		if err == nil {
			if out := dedupeNames(names); len(out) > 0 {
				return out
			}
		}
		s.log.Debug().Err(err).Str("query", partial).Msg("food suggestions from history")
	}
	recent, err := s.food.ListRecent(ctx, userID, adviceFoodLimit*5)
	if err != nil {
		return []string{}
	}
	needle := strings.ToLower(partial)
	var names []string
	for _, e := range recent {
		if strings.Contains(strings.ToLower(e.Description), needle) {
			names = append(names, e.Description)
		}
	}
	return dedupeNames(names)
}

func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, maxSuggestions)
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
