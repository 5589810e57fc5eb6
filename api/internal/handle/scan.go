package handle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"menu-lens/api/internal/dish"
	"menu-lens/api/internal/ingest"
	"menu-lens/api/internal/present"
	"menu-lens/api/internal/progress"
	"menu-lens/api/internal/scan"
	"menu-lens/api/internal/scanerr"
	"menu-lens/api/internal/util"
)

type ScanRequest struct {
	ImageB64 string `json:"image_b64"`
	ImageURL string `json:"image_url"`
	Language string `json:"language"`
	LLMName  string `json:"llm_name"`
}

type ScanResponse struct {
	present.View
	IsMenu   bool   `json:"isMenu"`
	PhotoRef string `json:"photoRef"`
}

type ProgressResponse struct {
	State   string  `json:"state"`
	Percent float64 `json:"percent"`
	Status  string  `json:"status,omitempty"`
}

var errNoImage = errors.New("image_b64 or image_url required")

// httpNav: HTTP clients drive their own screens from the responses.
type httpNav struct{}

func (httpNav) ToScanning() {}
func (httpNav) ToResults()  {}
func (httpNav) ToCapture()  {}

func (h *Handle) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]string{"id": s.ID})
}

func (h *Handle) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if v, ok := h.runs.LoadAndDelete(id); ok {
		v.(*scan.Run).Stop()
	}
	h.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// Scan runs one scan to completion and answers with the presentation view.
func (h *Handle) Scan(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var photo ingest.Photo
	switch {
	case strings.TrimSpace(req.ImageB64) != "":
		data, _, err := util.DecodeBase64MaybeDataURL(req.ImageB64)
		if err != nil {
			writeError(w, &scanerr.IngestionError{Err: err})
			return
		}
		photo, err = h.ingest.IngestBytes(ctx, data)
		if err != nil {
			writeError(w, err)
			return
		}
	case strings.TrimSpace(req.ImageURL) != "":
		data, err := h.ingest.Bytes(ctx, req.ImageURL)
		if err != nil {
			writeError(w, err)
			return
		}
		photo, err = h.ingest.IngestBytes(ctx, data)
		if err != nil {
			writeError(w, err)
			return
		}
	default:
		writeError(w, &scanerr.IngestionError{Err: errNoImage})
		return
	}

	if prev, ok := h.runs.Load(sess.ID); ok {
		prev.(*scan.Run).Stop()
	}
	run := h.scanner.Start(ctx, sess, photo.Ref, req.Language, req.LLMName, httpNav{})
	h.runs.Store(sess.ID, run)

	dishes, isMenu, err := run.Wait()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ScanResponse{View: present.Build(dishes), IsMenu: isMenu, PhotoRef: photo.Ref})
}

func (h *Handle) CancelScan(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	cancelled := false
	if v, ok := h.runs.Load(sess.ID); ok {
		run := v.(*scan.Run)
		cancelled = sess.IsLive(run.Token)
		run.Cancel()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// Progress reports the indicator of the latest run, for clients polling
// while Scan is in flight.
func (h *Handle) Progress(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	out := ProgressResponse{State: progress.Idle.String()}
	if v, ok := h.runs.Load(sess.ID); ok {
		pc := v.(*scan.Run).Progress
		st, pct := pc.Snapshot()
		out = ProgressResponse{State: st.String(), Percent: pct, Status: pc.Status()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handle) Results(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	dishes := sess.Current()
	writeJSON(w, http.StatusOK, ScanResponse{
		View:     present.Build(dishes),
		IsMenu:   len(dishes) > 0 && dishes[0].IsMenu,
		PhotoRef: sess.UploadedRef(),
	})
}

// LeaveResults is navigation away from the results screen.
func (h *Handle) LeaveResults(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Leave()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handle) History(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]dish.Dish{"dishes": sess.History()})
}
