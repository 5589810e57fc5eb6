package dish

import (
	"net/url"
	"strings"
)

// IllustrationURL builds the generation/lookup URL for a menu dish's
// illustrative image. The service is best effort; nothing here fetches it.
func IllustrationURL(base, query string) string {
	q := strings.TrimSpace(query)
	if q == "" {
		return ""
	}
	prompt := "appetizing photo of " + q + ", plated food, natural light"
	b := strings.TrimSpace(base)
	if strings.Contains(b, "{query}") {
		return strings.ReplaceAll(b, "{query}", url.QueryEscape(prompt))
	}
	if !strings.HasSuffix(b, "/") {
		b += "/"
	}
	return b + url.PathEscape(prompt)
}
