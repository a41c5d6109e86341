package annotate

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	fieldAnnotatedCode = "commented_code"
	fieldAnnotatedAlt  = "annotated_code"

	// snippetLimit is the number of characters kept in a MalformedPayload snippet.
	snippetLimit = 2000
)

// Validate parses the sanitized candidate and checks the required field.
// Optional fields are projected best-effort; a field of the wrong type is
// left at its zero value rather than failing the payload.
func Validate(candidate string) (Record, error) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return Record{}, &ParseError{Kind: MalformedPayload, Snippet: truncateRunes(candidate, snippetLimit), Err: err}
	}
	if parsed == nil {
		return Record{}, &ParseError{Kind: MalformedPayload, Snippet: truncateRunes(candidate, snippetLimit)}
	}

	code := pickFirstString(parsed, fieldAnnotatedCode, fieldAnnotatedAlt)
	if strings.TrimSpace(code) == "" {
		return Record{}, &ParseError{Kind: MissingRequiredField, Parsed: parsed}
	}

	return Record{
		AnnotatedCode:   code,
		Pattern:         parseString(parsed["pattern"]),
		TimeComplexity:  parseComplexity(parsed["time_complexity"]),
		SpaceComplexity: parseComplexity(parsed["space_complexity"]),
		Explanation:     parseStringSlice(parsed["explanation"]),
		Notes:           parseString(parsed["notes"]),
	}, nil
}

func pickFirstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func parseString(v any) string {
	s, _ := v.(string)
	return s
}

func parseComplexity(v any) Complexity {
	switch x := v.(type) {
	case string:
		return Complexity{Estimate: x}
	case map[string]any:
		return Complexity{
			Estimate:   parseString(x["estimate"]),
			Confidence: parseConfidence(x["confidence"]),
		}
	}
	return Complexity{}
}

func parseConfidence(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	switch {
	case f != f, f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func parseStringSlice(v any) []string {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return nil
		}
		return []string{x}
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
