package gpt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"menu-lens/api/internal/analysis"
	"menu-lens/api/internal/prompt"
	"menu-lens/api/internal/scanerr"
)

var jpeg = base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xE0})

func newRequest(t *testing.T) analysis.Request {
	t.Helper()
	schema, err := prompt.Loader{}.Schema()
	if err != nil {
		t.Fatal(err)
	}
	prompt.FixJSONSchemaStrict(schema)
	return analysis.Request{ImageB64: jpeg, MIME: "image/jpeg", Language: "English", System: "sys", User: "usr", Schema: schema}
}

func TestAnalyzeSendsStrictSchema(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses" || r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"object":"response","output":[{"role":"assistant","content":[{"type":"output_text","text":"{\"isMenu\":false,\"dishes\":[]}"}]}]}`))
	}))
	defer srv.Close()

	e := New("k", "gpt-4.1-mini")
	e.BaseURL = srv.URL
	out, err := e.Analyze(context.Background(), newRequest(t))
	if err != nil {
		t.Fatal(err)
	}
	if out != `{"isMenu":false,"dishes":[]}` {
		t.Fatalf("got %q", out)
	}

	format := got["text"].(map[string]any)["format"].(map[string]any)
	if format["type"] != "json_schema" || format["strict"] != true {
		t.Fatalf("format %v", format)
	}
	schema := format["schema"].(map[string]any)
	if _, ok := schema["$schema"]; ok {
		t.Fatal("$schema must be stripped for strict mode")
	}
}

func TestAnalyzeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := New("k", "gpt-4.1-mini")
	e.BaseURL = srv.URL
	_, err := e.Analyze(context.Background(), newRequest(t))
	var te *scanerr.AnalysisTransportError
	if !errors.As(err, &te) || te.Status != http.StatusTooManyRequests {
		t.Fatalf("expected 429 transport error, got %v", err)
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	if _, err := New("", "m").Analyze(context.Background(), newRequest(t)); err == nil {
		t.Fatal("expected error without key")
	}
	req := newRequest(t)
	req.ImageB64 = base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))
	req.MIME = ""
	if _, err := New("k", "m").Analyze(context.Background(), req); err == nil {
		t.Fatal("expected error for pdf")
	}
}

func TestExtractResponsesText(t *testing.T) {
	if got := extractResponsesText([]byte(`{"output_text":" {} "}`)); got != "{}" {
		t.Fatalf("got %q", got)
	}
	if got := extractResponsesText([]byte(`not json`)); got != "" {
		t.Fatalf("got %q", got)
	}
}
