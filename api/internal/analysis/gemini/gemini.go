package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"menu-lens/api/internal/analysis"
	"menu-lens/api/internal/scanerr"
	"menu-lens/api/internal/util"
)

type Engine struct {
	APIKey string
	model  string
	opts   []option.ClientOption
}

func New(apiKey, model string, opts ...option.ClientOption) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(model),
		opts:   opts,
	}
}

func (e *Engine) Name() string  { return "gemini" }
func (e *Engine) Model() string { return e.model }

// Analyze sends the photo with the system instruction and schema and returns
// the raw JSON text. Transport problems come back as AnalysisTransportError.
func (e *Engine) Analyze(ctx context.Context, in analysis.Request) (string, error) {
	if e.APIKey == "" {
		return "", e.transportErr(errors.New("GEMINI_API_KEY is empty"))
	}
	imgBytes, mimeFromDataURL, err := util.DecodeBase64MaybeDataURL(in.ImageB64)
	if err != nil || len(imgBytes) == 0 {
		return "", e.transportErr(fmt.Errorf("bad image base64: %v", err))
	}
	mime := util.PickMIME(in.MIME, mimeFromDataURL, imgBytes)

	opts := append([]option.ClientOption{option.WithAPIKey(e.APIKey)}, e.opts...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", e.transportErr(err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.model)
	if m == nil {
		return "", e.transportErr(errors.New("model is nil"))
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   toSchema(in.Schema),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(in.System)},
	}

	parts := []genai.Part{
		genai.Text(in.User),
		genai.Blob{MIMEType: mime, Data: imgBytes},
	}

	start := time.Now()
	resp, err := m.GenerateContent(ctx, parts...)
	log.Printf("gemini analyze time: %d ms", time.Since(start).Milliseconds())
	if err != nil {
		return "", e.transportErr(err)
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", e.transportErr(errors.New("empty response"))
	}
	return txt, nil
}

func (e *Engine) transportErr(err error) error {
	return &scanerr.AnalysisTransportError{Engine: e.Name(), Err: err}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
