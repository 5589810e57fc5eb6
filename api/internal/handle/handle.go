package handle

import (
	"encoding/json"
	"net/http"
	"sync"

	"menu-lens/api/internal/ingest"
	"menu-lens/api/internal/scan"
	"menu-lens/api/internal/scanerr"
	"menu-lens/api/internal/session"
)

type Handle struct {
	scanner  *scan.Scanner
	ingest   *ingest.Ingestor
	sessions *session.Registry

	runs sync.Map // session id -> *scan.Run
}

func New(sc *scan.Scanner, in *ingest.Ingestor, reg *session.Registry) *Handle {
	return &Handle{
		scanner:  sc,
		ingest:   in,
		sessions: reg,
	}
}

// Register mounts the session API on mux.
func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/sessions", h.CreateSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", h.DeleteSession)

	mux.HandleFunc("POST /v1/sessions/{id}/scans", h.Scan)
	mux.HandleFunc("DELETE /v1/sessions/{id}/scans", h.CancelScan)
	mux.HandleFunc("GET /v1/sessions/{id}/scans/progress", h.Progress)

	mux.HandleFunc("GET /v1/sessions/{id}/results", h.Results)
	mux.HandleFunc("DELETE /v1/sessions/{id}/results", h.LeaveResults)
	mux.HandleFunc("GET /v1/sessions/{id}/history", h.History)
	mux.HandleFunc("GET /v1/sessions/{id}/saved", h.Saved)
	mux.HandleFunc("POST /v1/sessions/{id}/saved/{dishID}", h.ToggleSave)
	mux.HandleFunc("GET /v1/sessions/{id}/thumbnails/{dishID}", h.Thumbnail)

	mux.HandleFunc("POST /v1/sessions/{id}/detail/{dishID}", h.OpenDetail)
	mux.HandleFunc("POST /v1/sessions/{id}/detail/toggle", h.ToggleDetail)
	mux.HandleFunc("GET /v1/sessions/{id}/detail", h.Detail)
	mux.HandleFunc("DELETE /v1/sessions/{id}/detail", h.CloseDetail)
	mux.HandleFunc("GET /v1/sessions/{id}/detail/image", h.DetailImage)
}

func (h *Handle) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := h.sessions.Get(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown session", Kind: "not_found"})
		return nil, false
	}
	return s, true
}

type errorBody struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Status string `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a scan error kind onto an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	kind := scanerr.Kind(err)
	code := http.StatusInternalServerError
	switch kind {
	case "ingestion":
		code = http.StatusBadRequest
	case "parse":
		code = http.StatusUnprocessableEntity
	case "transport":
		code = http.StatusBadGateway
	case "stale":
		code = http.StatusConflict
	case "save_consistency":
		code = http.StatusNotFound
	}
	writeJSON(w, code, errorBody{Error: err.Error(), Kind: kind, Status: scanerr.StatusText(err)})
}
