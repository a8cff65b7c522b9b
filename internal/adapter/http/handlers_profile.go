package adapthttp

import (
	"net/http"

	"nutramind/internal/domain"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFromContext(r)

	var (
		p   *domain.UserProfile
		err error
	)
	switch r.Method {
	case http.MethodGet:
		p, err = s.profile.GetProfile(ctx, user.ID)
	case http.MethodPut:
		var body domain.UserProfile
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p, err = s.profile.UpdateProfile(ctx, user.ID, body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := map[string]any{
		"profile": p,
		"targets": domain.ComputeDailyTargets(p),
	}
	if p.HeightCm != nil && p.WeightKg != nil {
		if bmi, err := domain.BMI(*p.HeightCm, *p.WeightKg); err == nil {
			resp["bmi"] = map[string]any{"value": bmi, "category": domain.BMICategory(bmi)}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfileTargets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	targets, err := s.profile.Targets(r.Context(), userFromContext(r).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, targets)
}
