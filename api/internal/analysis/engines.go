package analysis

import (
	"fmt"
	"strings"
)

type Engines struct {
	Gemini  Engine
	OpenAI  Engine
	Default string
}

// Get resolves an engine by llm_name; empty picks the default.
func (e *Engines) Get(llmName string) (Engine, error) {
	name := strings.ToLower(strings.TrimSpace(llmName))
	if name == "" {
		name = strings.ToLower(e.Default)
	}
	var eng Engine
	switch name {
	case "gemini":
		eng = e.Gemini
	case "gpt", "openai":
		eng = e.OpenAI
	default:
		return nil, fmt.Errorf("unknown llm_name %q; use 'gemini' or 'gpt'", llmName)
	}
	if eng == nil {
		return nil, fmt.Errorf("llm %q is not configured", name)
	}
	return eng, nil
}
