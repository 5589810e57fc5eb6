package prompt

import (
	"fmt"
	"strings"
)

const analyzeSystem = `You analyze a PHOTO taken by a diner. First decide what it shows:
- a MENU (printed or handwritten list of dish names, possibly with prices), or
- a FOOD PHOTO (one or more prepared dishes on a table or plate).

For every dish you identify produce:
- name: the dish name translated into %[1]s;
- originalName: the name in its native language/script as written (for food photos: the name the dish is known by in its cuisine);
- englishName: a short plain English working name suitable for an image search;
- description: one or two sentences in %[1]s on what it is and how it is prepared;
- tags: up to 3 short flavor descriptors in %[1]s;
- allergens: up to 5 likely allergens in %[1]s, empty array if none are likely;
- spiceLevel: exactly one of None, Mild, Medium, Hot;
- category: a short grouping label in %[1]s (Soup, Main, Dessert, Drink...);
- boundingBox: [yMin, xMin, yMax, xMax] on a 0-1000 scale relative to the photo.
  For a MENU box the text that names the dish. For a FOOD PHOTO box the region of the dish itself.
  Use null when the dish cannot be located.

Keep the order in which dishes appear, most relevant first.
Return ONLY a JSON object matching analyze.schema.json. No prose, no markdown, no code fences. Any text outside JSON is an error.`

const analyzeUser = `Target language: %s. Answer strictly with JSON per analyze.schema.json.`

// System renders the built-in system instruction for the target language.
func System(language string) string {
	return fmt.Sprintf(analyzeSystem, language)
}

// User renders the short per-request instruction.
func User(language string) string {
	return fmt.Sprintf(analyzeUser, language)
}

// Render substitutes {{language}} in an override prompt loaded from disk.
func Render(tpl, language string) string {
	return strings.ReplaceAll(tpl, "{{language}}", language)
}
