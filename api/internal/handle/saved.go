package handle

import (
	"net/http"

	"menu-lens/api/internal/dish"
)

type ToggleSaveResponse struct {
	DishID string `json:"dishId"`
	Saved  bool   `json:"saved"`
}

func (h *Handle) Saved(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]dish.SavedItem{"items": sess.Saved()})
}

func (h *Handle) ToggleSave(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id := r.PathValue("dishID")
	saved, err := sess.ToggleSave(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleSaveResponse{DishID: id, Saved: saved})
}
