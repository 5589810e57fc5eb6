package prompt

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

const Name = "analyze"

// Loader resolves prompts and the schema, preferring files under Dir.
//
//	<Dir>/analyze.schema.json
//	<Dir>/<provider>/analyze.system.txt
//	<Dir>/<provider>/analyze.user.txt
type Loader struct {
	Dir string
}

func (l Loader) SystemPrompt(provider, language string) string {
	if s, ok := l.read(provider, "system"); ok {
		return Render(s, language)
	}
	return System(language)
}

func (l Loader) UserPrompt(provider, language string) string {
	if s, ok := l.read(provider, "user"); ok {
		return Render(s, language)
	}
	return User(language)
}

func (l Loader) read(provider, tp string) (string, bool) {
	if l.Dir == "" || provider == "" {
		return "", false
	}
	p := filepath.Join(l.Dir, strings.ToLower(provider), fmt.Sprintf("%s.%s.txt", Name, tp))
	b, err := os.ReadFile(p)
	if err != nil || len(b) == 0 {
		return "", false
	}
	return strings.TrimSpace(string(b)), true
}

// Schema returns a fresh copy of the output schema as a generic map.
func (l Loader) Schema() (map[string]any, error) {
	raw := []byte(AnalysisSchema)
	src := "embedded"
	if l.Dir != "" {
		p := filepath.Join(l.Dir, Name+".schema.json")
		if b, err := os.ReadFile(p); err == nil && len(b) > 0 {
			log.Printf("schema path: %s", p)
			raw, src = b, "file"
		}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("bad %s schema (%s): %w", Name, src, err)
	}
	ensureSchemaMeta(m)
	return m, nil
}

func ensureSchemaMeta(m map[string]any) {
	if _, ok := m["$schema"]; !ok {
		m["$schema"] = "http://json-schema.org/draft-07/schema#"
	}
}

// FixJSONSchemaStrict makes a schema acceptable for strict structured output:
// every object gets type=object, required = all properties, no extra keys.
func FixJSONSchemaStrict(node any) {
	switch n := node.(type) {
	case map[string]any:
		if props, ok := n["properties"].(map[string]any); ok {
			if _, hasType := n["type"]; !hasType {
				n["type"] = "object"
			}
			req := make([]any, 0, len(props))
			for k := range props {
				req = append(req, k)
			}
			n["required"] = req
			n["additionalProperties"] = false
			for _, v := range props {
				FixJSONSchemaStrict(v)
			}
		}
		if items, ok := n["items"]; ok {
			FixJSONSchemaStrict(items)
		}
		for _, k := range []string{"oneOf", "anyOf", "allOf"} {
			if arr, ok := n[k].([]any); ok {
				for _, el := range arr {
					FixJSONSchemaStrict(el)
				}
			}
		}
	case []any:
		for _, v := range n {
			FixJSONSchemaStrict(v)
		}
	}
}

// DropKeywords removes validation keywords a provider rejects, recursively.
func DropKeywords(node any, keys ...string) {
	switch n := node.(type) {
	case map[string]any:
		for _, k := range keys {
			delete(n, k)
		}
		for k, v := range n {
			if k == "enum" || k == "required" {
				continue
			}
			DropKeywords(v, keys...)
		}
	case []any:
		for _, v := range n {
			DropKeywords(v, keys...)
		}
	}
}
