package annotate

import (
	"strings"
	"time"
)

// Verbosity controls how densely the model is asked to comment the code.
type Verbosity string

const (
	VerbosityConcise  Verbosity = "concise"
	VerbosityVerbose  Verbosity = "verbose"
	VerbosityTeaching Verbosity = "teaching"
)

// DefaultLanguage is sent when the caller gives no language hint.
const DefaultLanguage = "code"

// DefaultMaxCodeLength caps the code sent to the model, in characters.
const DefaultMaxCodeLength = 20000

// ParseVerbosity maps user input onto a known level. The second return value
// is false when the input was not recognized and concise was substituted.
func ParseVerbosity(s string) (Verbosity, bool) {
	switch Verbosity(strings.ToLower(strings.TrimSpace(s))) {
	case "", VerbosityConcise:
		return VerbosityConcise, true
	case VerbosityVerbose:
		return VerbosityVerbose, true
	case VerbosityTeaching:
		return VerbosityTeaching, true
	default:
		return VerbosityConcise, false
	}
}

// Request is one annotation job.
type Request struct {
	Code      string
	Language  string
	Verbosity Verbosity
}

// Complexity is a model estimate such as "O(n log n)" with a confidence in [0,1].
type Complexity struct {
	Estimate   string  `json:"estimate"`
	Confidence float64 `json:"confidence"`
}

// Record is the validated annotation returned to callers. Only AnnotatedCode
// is guaranteed to be non-empty.
type Record struct {
	ID              string     `json:"id,omitempty"`
	AnnotatedCode   string     `json:"commented_code"`
	Pattern         string     `json:"pattern"`
	TimeComplexity  Complexity `json:"time_complexity"`
	SpaceComplexity Complexity `json:"space_complexity"`
	Explanation     []string   `json:"explanation"`
	Notes           string     `json:"notes"`
	OriginalCode    string     `json:"original_code"`
	Verbosity       Verbosity  `json:"verbosity"`
	Language        string     `json:"language,omitempty"`
	Model           string     `json:"model,omitempty"`
	CreatedAt       time.Time  `json:"created_at,omitempty"`
}
