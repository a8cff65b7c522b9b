package adapthttp

import (
	"fmt"
	"net/http"
)

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"recommendations": s.advice.Recommendations(r.Context(), userFromContext(r).ID),
	})
}

func (s *Server) handleSymptomAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.advice.AnalyzeSymptoms(r.Context(), userFromContext(r).ID))
}

func (s *Server) handleFoodSuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": s.advice.SuggestFoods(r.Context(), userFromContext(r).ID, r.URL.Query().Get("q")),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	out, err := s.export.Export(r.Context(), *userFromContext(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	name := fmt.Sprintf("nutramind-data-%s.json", localDayString(out.ExportedAt))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	writeJSON(w, http.StatusOK, out)
}
