package handle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"menu-lens/api/internal/analysis"
	"menu-lens/api/internal/detail"
	"menu-lens/api/internal/dish"
	"menu-lens/api/internal/ingest"
	"menu-lens/api/internal/present"
	"menu-lens/api/internal/progress"
	"menu-lens/api/internal/prompt"
	"menu-lens/api/internal/scan"
	"menu-lens/api/internal/session"
)

const menuJSON = `{"isMenu":true,"dishes":[
 {"name":"Gyoza","originalName":"餃子","englishName":"Gyoza","description":"Dumplings","tags":["savory"],"allergens":["gluten"],"spiceLevel":"None","category":"Starters","boundingBox":[100,100,200,900]},
 {"name":"Ramen","originalName":"ラーメン","englishName":"Ramen","description":"Noodle soup","tags":["umami"],"allergens":["egg"],"spiceLevel":"Mild","category":"Mains","boundingBox":[300,100,400,900]}
]}`

const photoJSON = `{"isMenu":false,"dishes":[{"name":"Taco","originalName":"Taco","englishName":"Taco","description":"Corn tortilla","tags":["savory"],"allergens":[],"spiceLevel":"Medium","category":"Mains","boundingBox":[200,100,600,400]}]}`

type cannedEngine struct{ raw string }

func (c *cannedEngine) Name() string  { return "gemini" }
func (c *cannedEngine) Model() string { return "canned" }
func (c *cannedEngine) Analyze(context.Context, analysis.Request) (string, error) {
	return c.raw, nil
}

func pngB64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newServer(t *testing.T, raw string) *httptest.Server {
	t.Helper()
	in := ingest.New(ingest.NewMemoryStore(), 1<<20)
	sc := &scan.Scanner{
		Ingest:     in,
		Builder:    analysis.NewBuilder(prompt.Loader{}, "English"),
		Engines:    &analysis.Engines{Gemini: &cannedEngine{raw: raw}, Default: "gemini"},
		Normalizer: dish.NewNormalizer("https://img.example/prompt/"),
		Progress:   progress.Options{Interval: time.Millisecond, Hold: time.Millisecond, ErrorGrace: time.Millisecond},
	}
	mux := http.NewServeMux()
	New(sc, in, session.NewRegistry()).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func newSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/v1/sessions", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: %d", resp.StatusCode)
	}
	return decode[map[string]string](t, resp)["id"]
}

func TestMenuScanSaveAndDetail(t *testing.T) {
	srv := newServer(t, menuJSON)
	base := srv.URL + "/v1/sessions/" + newSession(t, srv)

	resp := do(t, http.MethodPost, base+"/scans", ScanRequest{ImageB64: pngB64(t), Language: "English"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scan status %d", resp.StatusCode)
	}
	res := decode[ScanResponse](t, resp)
	if !res.IsMenu || res.Layout != present.LayoutList || len(res.Dishes) != 2 || len(res.Thumbnails) != 2 {
		t.Fatalf("unexpected scan response %+v", res)
	}
	if res.Thumbnails[0].Zoom != 1 || res.Thumbnails[0].FocalX != 50 {
		t.Fatal("menu thumbnails are centred")
	}
	id := res.Dishes[1].ID

	saved := decode[ToggleSaveResponse](t, do(t, http.MethodPost, base+"/saved/"+id, nil))
	if !saved.Saved {
		t.Fatal("first toggle should save")
	}
	items := decode[map[string][]dish.SavedItem](t, do(t, http.MethodGet, base+"/saved", nil))["items"]
	if len(items) != 1 || items[0].ID != id || items[0].SavedAt.IsZero() {
		t.Fatalf("saved list %+v", items)
	}

	v := decode[detail.View](t, do(t, http.MethodPost, base+"/detail/"+id, nil))
	if v.Mode != detail.Illustrative || !v.ShowToggle || !strings.HasPrefix(v.Image, "https://img.example/prompt/") {
		t.Fatalf("menu detail opens on illustration: %+v", v)
	}
	if resp := do(t, http.MethodGet, base+"/detail/image", nil); resp.StatusCode != http.StatusFound {
		t.Fatalf("illustration should redirect, got %d", resp.StatusCode)
	}

	tv := decode[ToggleResponse](t, do(t, http.MethodPost, base+"/detail/toggle", nil))
	if !tv.Toggled || tv.Mode != detail.SourceScan || tv.Spotlight == nil || tv.Image != res.PhotoRef {
		t.Fatalf("toggle to source scan: %+v", tv)
	}
	img := do(t, http.MethodGet, base+"/detail/image", nil)
	if img.StatusCode != http.StatusOK || img.Header.Get("Content-Type") != "image/jpeg" {
		t.Fatalf("spotlight image: %d %s", img.StatusCode, img.Header.Get("Content-Type"))
	}

	if resp := do(t, http.MethodDelete, base+"/detail", nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("close detail: %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, base+"/detail", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("closed detail should 404, got %d", resp.StatusCode)
	}

	unsaved := decode[ToggleSaveResponse](t, do(t, http.MethodPost, base+"/saved/"+id, nil))
	if unsaved.Saved {
		t.Fatal("second toggle should unsave")
	}
}

func TestPhotoScanThumbnail(t *testing.T) {
	srv := newServer(t, photoJSON)
	base := srv.URL + "/v1/sessions/" + newSession(t, srv)

	res := decode[ScanResponse](t, do(t, http.MethodPost, base+"/scans", ScanRequest{ImageB64: pngB64(t)}))
	if res.IsMenu || res.Layout != present.LayoutSingle || len(res.Thumbnails) != 0 {
		t.Fatalf("single photo result %+v", res)
	}
	id := res.Dishes[0].ID

	thumb := do(t, http.MethodGet, base+"/thumbnails/"+id+"?w=16&h=16", nil)
	if thumb.StatusCode != http.StatusOK || thumb.Header.Get("Content-Type") != "image/jpeg" {
		t.Fatalf("thumbnail: %d", thumb.StatusCode)
	}

	v := decode[detail.View](t, do(t, http.MethodPost, base+"/detail/"+id, nil))
	if v.Mode != detail.SourceScan || v.ShowToggle || v.Spotlight == nil {
		t.Fatalf("photo detail: %+v", v)
	}
	tv := decode[ToggleResponse](t, do(t, http.MethodPost, base+"/detail/toggle", nil))
	if tv.Toggled {
		t.Fatal("photo dishes have no toggle")
	}

	hist := decode[map[string][]dish.Dish](t, do(t, http.MethodGet, base+"/history", nil))["dishes"]
	if len(hist) != 1 {
		t.Fatalf("history %d", len(hist))
	}
	if resp := do(t, http.MethodDelete, base+"/results", nil); resp.StatusCode != http.StatusNoContent {
		t.Fatal("leave results")
	}
	cur := decode[ScanResponse](t, do(t, http.MethodGet, base+"/results", nil))
	if cur.Layout != present.LayoutEmpty || len(cur.Dishes) != 0 {
		t.Fatalf("results after leave %+v", cur)
	}
}

func TestScanErrorsMapToStatus(t *testing.T) {
	srv := newServer(t, `{"isMenu":true}`)
	base := srv.URL + "/v1/sessions/" + newSession(t, srv)

	resp := do(t, http.MethodPost, base+"/scans", ScanRequest{ImageB64: pngB64(t)})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("parse error status %d", resp.StatusCode)
	}
	if eb := decode[errorBody](t, resp); eb.Kind != "parse" || eb.Status == "" {
		t.Fatalf("error body %+v", eb)
	}

	if resp := do(t, http.MethodPost, base+"/scans", ScanRequest{}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing image status %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, base+"/scans", ScanRequest{ImageB64: base64.StdEncoding.EncodeToString([]byte("plain text"))}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("non-image status %d", resp.StatusCode)
	}

	if resp := do(t, http.MethodPost, base+"/saved/nope", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown dish save status %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, srv.URL+"/v1/sessions/missing/results", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown session status %d", resp.StatusCode)
	}

	p := decode[ProgressResponse](t, do(t, http.MethodGet, base+"/scans/progress", nil))
	if p.State != progress.Errored.String() && p.State != progress.Idle.String() {
		t.Fatalf("progress after failed scan %+v", p)
	}
}
