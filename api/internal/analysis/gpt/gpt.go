package gpt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"menu-lens/api/internal/analysis"
	"menu-lens/api/internal/prompt"
	"menu-lens/api/internal/scanerr"
	"menu-lens/api/internal/util"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Engine struct {
	APIKey  string
	BaseURL string
	model   string
	httpc   *http.Client
}

func New(key, model string) *Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}

	return &Engine{
		APIKey:  key,
		BaseURL: defaultBaseURL,
		model:   model,
		// Timeout=0: the caller's context is the only deadline.
		httpc: &http.Client{
			Timeout:   0,
			Transport: tr,
		},
	}
}

// WithHTTPClient overrides the internal HTTP client (e.g., for custom timeouts or tracing).
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

func (e *Engine) Name() string  { return "gpt" }
func (e *Engine) Model() string { return e.model }

func (e *Engine) Analyze(ctx context.Context, in analysis.Request) (string, error) {
	if e.APIKey == "" {
		return "", e.transportErr(0, errors.New("OPENAI_API_KEY not set"))
	}
	imgBytes, mimeFromDataURL, err := util.DecodeBase64MaybeDataURL(in.ImageB64)
	if err != nil || len(imgBytes) == 0 {
		return "", e.transportErr(0, fmt.Errorf("invalid image base64: %v", err))
	}
	mime := util.PickMIME(in.MIME, mimeFromDataURL, imgBytes)
	if !util.IsImageMIME(mime) {
		return "", e.transportErr(0, fmt.Errorf("unsupported MIME %s (need image/jpeg|png|webp)", mime))
	}
	dataURL := util.MakeDataURL(mime, in.ImageB64)
	if strings.HasPrefix(in.ImageB64, "data:") {
		dataURL = in.ImageB64
	}

	schema := in.Schema
	if schema != nil {
		// strict mode rejects these keywords
		prompt.DropKeywords(schema, "$schema", "title", "minItems", "maxItems", "minimum", "maximum")
	}

	body := map[string]any{
		"model": e.model,
		"input": []any{
			map[string]any{
				"role": "system",
				"content": []any{
					map[string]any{"type": "input_text", "text": in.System},
				},
			},
			map[string]any{
				"type": "message",
				"role": "user",
				"content": []any{
					map[string]any{"type": "input_text", "text": in.User},
					map[string]any{"type": "input_image", "image_url": dataURL, "detail": "high"},
				},
			},
		},
		"temperature": 0,
		"text": map[string]any{
			"format": map[string]any{
				"type":   "json_schema",
				"name":   prompt.Name,
				"strict": true,
				"schema": schema,
			},
		},
	}
	if strings.Contains(e.model, "gpt-5") {
		body["temperature"] = 1
	}

	payload, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(e.BaseURL, "/")+"/responses", bytes.NewReader(payload))
	if err != nil {
		return "", e.transportErr(0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	start := time.Now()
	resp, err := e.httpc.Do(req)
	log.Printf("gpt analyze time: %d ms", time.Since(start).Milliseconds())
	if err != nil {
		return "", e.transportErr(0, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", e.transportErr(resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", e.transportErr(resp.StatusCode, errors.New(truncateBytes(bytes.TrimSpace(raw), 1024)))
	}

	out := extractResponsesText(raw)
	if strings.TrimSpace(out) == "" {
		return "", e.transportErr(resp.StatusCode, fmt.Errorf("responses: empty output; body=%s", truncateBytes(raw, 1024)))
	}
	return out, nil
}

func (e *Engine) transportErr(status int, err error) error {
	return &scanerr.AnalysisTransportError{Engine: e.Name(), Status: status, Err: err}
}

// extractResponsesText pulls the model text out of a Responses API envelope.
// It prefers `output_text`, and otherwise concatenates text segments found in
// `output[i].content[j].text` where `type` is `output_text` or `text`.
func extractResponsesText(raw []byte) string {
	type content struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	type output struct {
		Content []content `json:"content"`
		Role    string    `json:"role,omitempty"`
	}
	var env struct {
		Object     string   `json:"object"`
		Status     string   `json:"status"`
		Output     []output `json:"output"`
		OutputText string   `json:"output_text"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	if s := strings.TrimSpace(env.OutputText); s != "" {
		return s
	}

	var b strings.Builder
	for _, o := range env.Output {
		for _, c := range o.Content {
			if strings.TrimSpace(c.Text) == "" {
				continue
			}
			if c.Type == "output_text" || c.Type == "text" || c.Type == "" {
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
				b.WriteString(c.Text)
			}
		}
	}
	return b.String()
}

func truncateBytes(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
