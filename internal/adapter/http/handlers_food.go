package adapthttp

import (
	"net/http"
	"time"

	"nutramind/internal/domain"
)

func (s *Server) handleFood(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFromContext(r)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if q.Get("day") == "" && q.Get("limit") != "" {
			items, err := s.food.ListRecent(ctx, user.ID, intQuery(r, "limit", 20))
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"items": items})
			return
		}
		day := q.Get("day")
		if day == "" {
			day = localDayString(time.Now())
		}
		items, err := s.food.ListForDay(ctx, user.ID, day)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		var total domain.Nutrients
		for _, e := range items {
			total = total.Add(e.Nutrients)
		}
		if items == nil {
			items = []domain.FoodEntry{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"day": day, "items": items, "totals": total})

	case http.MethodPost:
		var body struct {
			Description string            `json:"description"`
			Day         string            `json:"day"`
			Time        string            `json:"time"`
			Nutrients   *domain.Nutrients `json:"nutrients"`
			Analysis    string            `json:"analysis"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var (
			entry *domain.FoodEntry
			err   error
		)
		if body.Nutrients != nil {
			entry, err = s.food.LogFoodWithNutrients(ctx, user.ID, body.Description, body.Day, body.Time, *body.Nutrients, body.Analysis)
		} else {
			entry, err = s.food.LogFood(ctx, user.ID, body.Description, body.Day, body.Time)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleFoodItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFromContext(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var patch domain.FoodPatch
		if err := parseJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		entry, err := s.food.UpdateEntry(ctx, user.ID, id, patch)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entry": entry})

	case http.MethodDelete:
		deleted, err := s.food.DeleteEntry(ctx, user.ID, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": deleted})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
