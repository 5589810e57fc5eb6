package analysis

import "context"

// Request is one analysis call: the encoded photo plus everything the
// service needs to return dishes in the target language.
type Request struct {
	ImageB64  string
	MIME      string
	ImageHash string
	Language  string

	System string         // instructions: menu vs food photo, JSON only
	User   string         // per-request text
	Schema map[string]any // output schema (already strict-fixed)
}

// Engine sends a Request to a vision model and returns its raw text.
// It never interprets the text; that is the normalizer's job.
type Engine interface {
	Name() string
	Model() string
	Analyze(ctx context.Context, req Request) (string, error)
}
