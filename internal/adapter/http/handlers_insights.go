package adapthttp

import "net/http"

func (s *Server) handleInsightDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"insight": s.insights.Daily(r.Context(), userFromContext(r).ID),
	})
}

func (s *Server) handleInsightWeekly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"insight": s.insights.Weekly(r.Context(), userFromContext(r).ID),
	})
}
