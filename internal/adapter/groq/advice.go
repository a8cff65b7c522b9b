package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"nutramind/internal/domain"
)

type recommendationAnswer struct {
	Recommendations []struct {
		Type        string         `json:"type"`
		GoalID      string         `json:"goalId"`
		Title       string         `json:"title"`
		Subtitle    string         `json:"subtitle"`
		Description string         `json:"description"`
		Foods       []string       `json:"foods"`
		Recipe      *domain.Recipe `json:"recipe"`
	} `json:"recommendations"`
}

// Recommend asks the model for four recommendations that serve the user's
// goals given recent meals and symptoms.
func (c *Client) Recommend(ctx context.Context, in domain.AdviceInput) ([]domain.Recommendation, error) {
	text, err := c.complete(ctx, recommendationPrompt(in), 0.7, 2000)
	if err != nil {
		return nil, err
	}
	var a recommendationAnswer
	if err := json.Unmarshal([]byte(stripFences(text)), &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	out := make([]domain.Recommendation, 0, len(a.Recommendations))
	for _, r := range a.Recommendations {
		out = append(out, domain.Recommendation{
			Kind:        domain.RecommendationKind(r.Type),
			Goal:        domain.GoalTag(r.GoalID),
			Title:       strings.TrimSpace(r.Title),
			Subtitle:    strings.TrimSpace(r.Subtitle),
			Description: strings.TrimSpace(r.Description),
			Foods:       r.Foods,
			Recipe:      r.Recipe,
		})
	}
	return out, nil
}

// AnalyzeSymptoms asks the model how recent symptoms may relate to recent
// meals.
func (c *Client) AnalyzeSymptoms(ctx context.Context, in domain.AdviceInput) (*domain.SymptomAnalysis, error) {
	text, err := c.complete(ctx, symptomPrompt(in), 0.3, 1500)
	if err != nil {
		return nil, err
	}
	var a domain.SymptomAnalysis
	if err := json.Unmarshal([]byte(stripFences(text)), &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(a.Analysis) == "" {
		return nil, fmt.Errorf("%w: empty analysis", ErrMalformedResponse)
	}
	return &a, nil
}

// SuggestFoods asks the model for up to five common foods matching partial.
func (c *Client) SuggestFoods(ctx context.Context, partial string) ([]string, error) {
	text, err := c.complete(ctx, suggestPrompt(partial), 0.5, 200)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal([]byte(stripFences(text)), &names); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(names) > 5 {
		names = names[:5]
	}
	return names, nil
}

func recommendationPrompt(in domain.AdviceInput) string {
	var b strings.Builder
	b.WriteString("As a nutrition and health assistant, generate personalized recommendations from the following information.\n\n")
	b.WriteString("User's goals:\n")
	if len(in.Goals) == 0 {
		b.WriteString("- none selected\n")
	}
	for _, g := range in.Goals {
		fmt.Fprintf(&b, "- %s\n", g)
	}
	b.WriteString("\nRecent food entries:\n")
	for _, e := range in.Foods {
		fmt.Fprintf(&b, "- %s\n", e.Description)
	}
	if len(in.Symptoms) > 0 {
		b.WriteString("\nRecent symptoms:\n")
		writeSymptoms(&b, in.Symptoms)
	}
	b.WriteString(`
Generate 4 recommendations that help the user reach their goals. Each has type "food", "recipe" or "insight".

Return only valid JSON in this format:
{"recommendations": [{"type": "food", "goalId": "<one of the goals above>", "title": "...", "subtitle": "...", "description": "...", "foods": ["..."], "recipe": {"ingredients": ["..."], "instructions": "..."}}]}

Only food recommendations carry "foods" and only recipes carry "recipe".`)
	return b.String()
}

func symptomPrompt(in domain.AdviceInput) string {
	var b strings.Builder
	b.WriteString("As a health and nutrition assistant, analyze these symptoms and recent food entries for possible connections.\n\nSymptoms:\n")
	writeSymptoms(&b, in.Symptoms)
	b.WriteString("\nRecent food entries:\n")
	for _, e := range in.Foods {
		fmt.Fprintf(&b, "- %s: %s\n", e.Day, e.Description)
	}
	b.WriteString(`
Return only valid JSON in this format:
{"analysis": "...", "possibleCauses": ["..."], "recommendations": ["..."]}`)
	return b.String()
}

func writeSymptoms(b *strings.Builder, symptoms []domain.SymptomEntry) {
	for _, s := range symptoms {
		keys := make([]string, 0, len(s.Categories))
		for k := range s.Categories {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = k + ": " + s.Categories[k]
		}
		fmt.Fprintf(b, "- %s: %s\n", s.Day, strings.Join(pairs, ", "))
		if s.Notes != "" {
			fmt.Fprintf(b, "  Notes: %s\n", s.Notes)
		}
	}
}

func suggestPrompt(partial string) string {
	return fmt.Sprintf(`Suggest 5 common foods that match or contain: %q

Focus on common, recognizable foods that partially match the input, with variety across proteins, carbs and vegetables.

Return only a JSON array of food names, like ["apple", "banana", "chicken breast"].`, partial)
}
