package adapthttp

import (
	"net/http"

	"nutramind/internal/domain"
)

// handleSyncApply applies one mutation replayed from a client's offline
// queue. Replays of an already applied key answer 200 with replayed=true.
func (s *Server) handleSyncApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var m domain.Mutation
	if err := parseJSON(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.sync.Apply(r.Context(), userFromContext(r).ID, m)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
