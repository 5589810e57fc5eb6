package analysis

import (
	"errors"
	"strings"

	"menu-lens/api/internal/ingest"
	"menu-lens/api/internal/prompt"
)

// Builder assembles the analysis request for a scan.
type Builder struct {
	Prompts         prompt.Loader
	DefaultLanguage string
}

func NewBuilder(p prompt.Loader, defaultLanguage string) *Builder {
	if strings.TrimSpace(defaultLanguage) == "" {
		defaultLanguage = "English"
	}
	return &Builder{Prompts: p, DefaultLanguage: defaultLanguage}
}

var ErrEmptyPayload = errors.New("analysis: empty image payload")

// Build produces the request for provider. An empty language falls back to
// the configured default.
func (b *Builder) Build(p ingest.Payload, language, provider string) (Request, error) {
	if strings.TrimSpace(p.Base64) == "" {
		return Request{}, ErrEmptyPayload
	}
	lang := strings.TrimSpace(language)
	if lang == "" {
		lang = b.DefaultLanguage
	}
	schema, err := b.Prompts.Schema()
	if err != nil {
		return Request{}, err
	}
	prompt.FixJSONSchemaStrict(schema)

	return Request{
		ImageB64:  p.Base64,
		MIME:      p.MIME,
		ImageHash: p.Hash,
		Language:  lang,
		System:    b.Prompts.SystemPrompt(provider, lang),
		User:      b.Prompts.UserPrompt(provider, lang),
		Schema:    schema,
	}, nil
}
