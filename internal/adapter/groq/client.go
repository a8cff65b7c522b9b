// Package groq talks to an OpenAI-compatible chat completions endpoint to
// estimate nutrients and write short coaching insights.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nutramind/internal/domain"
)

// Defaults for the hosted Groq API.
const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

var (
	// ErrNotConfigured is returned when no API key was supplied.
	ErrNotConfigured = errors.New("groq: api key not configured")
	// ErrMalformedResponse is returned when the model's answer cannot be
	// used.
	ErrMalformedResponse = errors.New("groq: malformed response")
)

// Client is a minimal chat completions client.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// New creates a Client. Empty baseURL and model fall back to the defaults.
func New(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	return out.Choices[0].Message.Content, nil
}

// Generate returns the model's answer to prompt, trimmed.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.complete(ctx, prompt, 0.7, 150)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

type nutritionAnswer struct {
	Calories    *float64 `json:"calories"`
	Protein     *float64 `json:"protein"`
	Carbs       *float64 `json:"carbs"`
	Fat         *float64 `json:"fat"`
	Description *string  `json:"description"`
}

// EstimateNutrients asks the model for the nutrients of a typical serving of
// description.
func (c *Client) EstimateNutrients(ctx context.Context, description string, goals []domain.GoalTag) (*domain.NutritionEstimate, error) {
	text, err := c.complete(ctx, nutritionPrompt(description, goals), 0.3, 0)
	if err != nil {
		return nil, err
	}
	return parseNutrition(text)
}

func parseNutrition(text string) (*domain.NutritionEstimate, error) {
	var a nutritionAnswer
	if err := json.Unmarshal([]byte(stripFences(text)), &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if a.Calories == nil || a.Protein == nil || a.Carbs == nil || a.Fat == nil || a.Description == nil {
		return nil, fmt.Errorf("%w: missing fields", ErrMalformedResponse)
	}
	est := &domain.NutritionEstimate{
		Nutrients: domain.Nutrients{Calories: *a.Calories, Protein: *a.Protein, Carbs: *a.Carbs, Fat: *a.Fat},
		Analysis:  strings.TrimSpace(*a.Description),
	}
	if !est.Nutrients.Valid() {
		return nil, fmt.Errorf("%w: negative nutrients", ErrMalformedResponse)
	}
	return est, nil
}

// stripFences removes a surrounding ```json ... ``` block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func nutritionPrompt(description string, goals []domain.GoalTag) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this food: %q\n\n", description)
	if len(goals) > 0 {
		names := make([]string, len(goals))
		for i, g := range goals {
			names[i] = string(g)
		}
		fmt.Fprintf(&b, "User goals: %s\n\n", strings.Join(names, ", "))
	}
	b.WriteString(`Estimate the nutrition of a typical serving (calories, protein in grams, carbs in grams, fat in grams) and write a 2-3 sentence health description that considers the user's goals.

Return only valid JSON in this format:
{"calories": number, "protein": number, "carbs": number, "fat": number, "description": "..."}`)
	return b.String()
}
