package annotate

import (
	"regexp"
	"strings"
)

var (
	reLeadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+.-]*\\s*")
	reTrailingFence = regexp.MustCompile("\\s*```$")
)

// Sanitize strips one leading and one trailing fence marker and isolates the
// span between the first '{' and the last '}'. When no such span exists the
// trimmed text is returned and parsing is expected to fail downstream.
func Sanitize(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = reLeadingFence.ReplaceAllLiteralString(cleaned, "")
	cleaned = reTrailingFence.ReplaceAllLiteralString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first != -1 && last > first {
		return cleaned[first : last+1]
	}
	return cleaned
}
