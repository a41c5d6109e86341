package annotate

import (
	"fmt"
	"strings"
)

const systemTemplate = `You are a precise teaching assistant. Given source code, return ONLY JSON:

{
  "commented_code": "...",
  "pattern": "...",
  "time_complexity": { "estimate": "O()", "confidence": 0-1 },
  "space_complexity": { "estimate": "O()", "confidence": 0-1 },
  "explanation": ["...", "..."],
  "notes": "..."
}

Rules:
- NEVER output anything outside JSON.
- Add inline comments using the comment style of the language.
- Do not modify logic.
- Keep original formatting.
- Pattern must be short (e.g., "Two Pointers", "DP", "Binary Search").
- %s
`

var verbosityRules = map[Verbosity]string{
	VerbosityConcise:  "Comment density: concise. Add small comments only where the intent is not obvious.",
	VerbosityVerbose:  "Comment density: verbose. Comment every meaningful block in detail.",
	VerbosityTeaching: "Comment density: teaching. Explain step by step and include a micro-example where it helps.",
}

// SystemInstruction returns the fixed JSON-only directive for a verbosity level.
func SystemInstruction(v Verbosity) string {
	rule, ok := verbosityRules[v]
	if !ok {
		rule = verbosityRules[VerbosityConcise]
	}
	return fmt.Sprintf(systemTemplate, rule)
}

// UserContent embeds the language hint, verbosity and code.
func UserContent(language string, v Verbosity, code string) string {
	var b strings.Builder
	b.WriteString("LANGUAGE: ")
	b.WriteString(language)
	b.WriteString("\nVERBOSITY: ")
	b.WriteString(string(v))
	b.WriteString("\nCODE:\n\"\"\"")
	b.WriteString(code)
	b.WriteString("\"\"\"\n")
	return b.String()
}
