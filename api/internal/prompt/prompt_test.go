package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedSchemaParses(t *testing.T) {
	m, err := Loader{}.Schema()
	if err != nil {
		t.Fatal(err)
	}
	props := m["properties"].(map[string]any)
	if _, ok := props["isMenu"]; !ok {
		t.Fatal("isMenu missing from schema")
	}
	items := props["dishes"].(map[string]any)["items"].(map[string]any)["properties"].(map[string]any)
	for _, k := range []string{"name", "originalName", "englishName", "description", "tags", "allergens", "spiceLevel", "category", "boundingBox"} {
		if _, ok := items[k]; !ok {
			t.Fatalf("dish field %s missing from schema", k)
		}
	}
}

func TestFixJSONSchemaStrict(t *testing.T) {
	m, _ := Loader{}.Schema()
	FixJSONSchemaStrict(m)

	req := m["required"].([]any)
	if len(req) != 2 {
		t.Fatalf("top-level required = %v", req)
	}
	dish := m["properties"].(map[string]any)["dishes"].(map[string]any)["items"].(map[string]any)
	if got := len(dish["required"].([]any)); got != 9 {
		t.Fatalf("dish required has %d entries, want 9", got)
	}
	if dish["additionalProperties"] != false {
		t.Fatal("additionalProperties must be false")
	}
}

func TestLoaderOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "gpt"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "gpt", "analyze.system.txt"), []byte("Translate into {{language}} please."), 0o644); err != nil {
		t.Fatal(err)
	}
	l := Loader{Dir: dir}

	if got := l.SystemPrompt("gpt", "German"); got != "Translate into German please." {
		t.Fatalf("override not used: %q", got)
	}
	if got := l.SystemPrompt("gemini", "German"); !strings.Contains(got, "translated into German") {
		t.Fatalf("fallback should be built-in: %q", got)
	}
	if got := l.UserPrompt("gpt", "German"); !strings.Contains(got, "German") {
		t.Fatalf("user prompt: %q", got)
	}
}

func TestLoaderBadSchemaFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "analyze.schema.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := (Loader{Dir: dir}).Schema(); err == nil {
		t.Fatal("expected error for broken schema file")
	}
}

func TestDropKeywords(t *testing.T) {
	m, _ := Loader{}.Schema()
	DropKeywords(m, "minItems", "maxItems", "minimum", "maximum", "$schema")

	if _, ok := m["$schema"]; ok {
		t.Fatal("$schema should be gone")
	}
	box := m["properties"].(map[string]any)["dishes"].(map[string]any)["items"].(map[string]any)["properties"].(map[string]any)["boundingBox"].(map[string]any)
	if _, ok := box["minItems"]; ok {
		t.Fatal("minItems should be gone")
	}
	if _, ok := box["items"].(map[string]any)["maximum"]; ok {
		t.Fatal("nested maximum should be gone")
	}
}
