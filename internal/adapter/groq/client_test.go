package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutramind/internal/domain"
)

func fakeServer(t *testing.T, status int, content string, seen *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(content))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
}

func TestEstimateNutrients_StripsFences(t *testing.T) {
	var seen chatRequest
	ts := fakeServer(t, http.StatusOK, "```json\n{\"calories\": 320, \"protein\": 24, \"carbs\": 8, \"fat\": 21, \"description\": \"High protein.\"}\n```", &seen)
	defer ts.Close()

	c := New("test-key", ts.URL, "")
	est, err := c.EstimateNutrients(context.Background(), "three eggs", []domain.GoalTag{domain.GoalMuscle})
	require.NoError(t, err)
	assert.Equal(t, domain.Nutrients{Calories: 320, Protein: 24, Carbs: 8, Fat: 21}, est.Nutrients)
	assert.Equal(t, "High protein.", est.Analysis)

	assert.Equal(t, DefaultModel, seen.Model)
	require.Len(t, seen.Messages, 1)
	assert.Contains(t, seen.Messages[0].Content, `"three eggs"`)
	assert.Contains(t, seen.Messages[0].Content, "User goals: muscle")
}

func TestEstimateNutrients_RejectsIncompleteAnswers(t *testing.T) {
	tests := map[string]string{
		"not json":       "I think about 300 calories",
		"missing fat":    `{"calories": 300, "protein": 10, "carbs": 40, "description": "ok"}`,
		"negative value": `{"calories": -5, "protein": 10, "carbs": 40, "fat": 1, "description": "ok"}`,
		"string number":  `{"calories": "300", "protein": 10, "carbs": 40, "fat": 1, "description": "ok"}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			ts := fakeServer(t, http.StatusOK, content, nil)
			defer ts.Close()
			_, err := New("test-key", ts.URL, "").EstimateNutrients(context.Background(), "soup", nil)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestGenerate(t *testing.T) {
	ts := fakeServer(t, http.StatusOK, "  Great protein intake today!\n", nil)
	defer ts.Close()

	text, err := New("test-key", ts.URL+"/", "custom-model").Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Great protein intake today!", text)
}

func TestErrors(t *testing.T) {
	_, err := New("", "", "").Generate(context.Background(), "prompt")
	assert.True(t, errors.Is(err, ErrNotConfigured))

	ts := fakeServer(t, http.StatusTooManyRequests, "rate limited", nil)
	defer ts.Close()
	_, err = New("test-key", ts.URL, "").Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "429"))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripFences(`  {"a":1} `))
}
