package handle

import (
	"net/http"
	"strconv"

	"menu-lens/api/internal/detail"
	"menu-lens/api/internal/present"
	"menu-lens/api/internal/render"
)

const (
	defaultThumbSide = 320
	maxThumbSide     = 1024
)

type ToggleResponse struct {
	detail.View
	Toggled bool `json:"toggled"`
}

func (h *Handle) OpenDetail(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id := r.PathValue("dishID")
	d, found := sess.Find(id)
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown dish " + id, Kind: "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, sess.Detail.Open(d, sess.PhotoFor(id)))
}

func (h *Handle) ToggleDetail(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, open := sess.Detail.Selected(); !open {
		writeJSON(w, http.StatusConflict, errorBody{Error: "no dish open", Kind: "no_detail"})
		return
	}
	v, toggled := sess.Detail.Toggle()
	writeJSON(w, http.StatusOK, ToggleResponse{View: v, Toggled: toggled})
}

func (h *Handle) Detail(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	v, open := sess.Detail.View()
	if !open {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no dish open", Kind: "no_detail"})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handle) CloseDetail(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Detail.Close()
	w.WriteHeader(http.StatusNoContent)
}

// DetailImage serves the open dish's current image: illustrations by
// redirect, the captured photo as JPEG with the spotlight applied.
func (h *Handle) DetailImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	v, open := sess.Detail.View()
	if !open || v.Image == "" {
		http.NotFound(w, r)
		return
	}
	if v.Mode == detail.Illustrative {
		http.Redirect(w, r, v.Image, http.StatusFound)
		return
	}
	photo, err := h.ingest.Bytes(r.Context(), v.Image)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := render.Spotlight(photo, v.Spotlight)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJPEG(w, out)
}

// Thumbnail crops a photo dish around its box. Menu dishes redirect to
// their illustration.
func (h *Handle) Thumbnail(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	d, found := sess.Find(r.PathValue("dishID"))
	if !found || d.Image == "" {
		http.NotFound(w, r)
		return
	}
	if d.IsMenu {
		http.Redirect(w, r, d.Image, http.StatusFound)
		return
	}
	photo, err := h.ingest.Bytes(r.Context(), d.Image)
	if err != nil {
		writeError(w, err)
		return
	}
	side := sideParam(r, "w")
	out, err := render.Thumbnail(photo, present.ThumbnailFor(d), side, sideParamOr(r, "h", side))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJPEG(w, out)
}

func sideParam(r *http.Request, key string) int {
	return sideParamOr(r, key, defaultThumbSide)
}

func sideParamOr(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxThumbSide {
		return maxThumbSide
	}
	return n
}

func writeJPEG(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
