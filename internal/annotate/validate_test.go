package annotate

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidate_WellFormed(t *testing.T) {
	payload := `{
		"commented_code": "x = 1  # set x",
		"pattern": "Assignment",
		"time_complexity": {"estimate": "O(1)", "confidence": 0.9},
		"space_complexity": {"estimate": "O(1)", "confidence": "0.75"},
		"explanation": ["assigns one", 3, "done"],
		"notes": "trivial",
		"extra": {"ignored": true}
	}`
	got, err := Validate(payload)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	want := Record{
		AnnotatedCode:   "x = 1  # set x",
		Pattern:         "Assignment",
		TimeComplexity:  Complexity{Estimate: "O(1)", Confidence: 0.9},
		SpaceComplexity: Complexity{Estimate: "O(1)", Confidence: 0.75},
		Explanation:     []string{"assigns one", "done"},
		Notes:           "trivial",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_AnnotatedCodeAlias(t *testing.T) {
	got, err := Validate(`{"annotated_code":"y = 2 // two"}`)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if got.AnnotatedCode != "y = 2 // two" {
		t.Fatalf("annotated code: got=%q", got.AnnotatedCode)
	}
}

func TestValidate_BestEffortOptionalFields(t *testing.T) {
	got, err := Validate(`{"commented_code":"c","pattern":5,"time_complexity":"O(n)","space_complexity":{"confidence":7},"explanation":"one line"}`)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if got.Pattern != "" {
		t.Fatalf("pattern should default, got %q", got.Pattern)
	}
	if got.TimeComplexity != (Complexity{Estimate: "O(n)"}) {
		t.Fatalf("time complexity: %+v", got.TimeComplexity)
	}
	if got.SpaceComplexity.Confidence != 1 {
		t.Fatalf("confidence should clamp to 1, got %v", got.SpaceComplexity.Confidence)
	}
	if len(got.Explanation) != 1 || got.Explanation[0] != "one line" {
		t.Fatalf("explanation: %+v", got.Explanation)
	}
}

func TestValidate_MissingRequiredField(t *testing.T) {
	for _, payload := range []string{`{"pattern":"DP"}`, `{"commented_code":"   "}`, `{"commented_code":12}`} {
		_, err := Validate(payload)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("%s: expected ParseError, got %v", payload, err)
		}
		if pe.Kind != MissingRequiredField {
			t.Fatalf("%s: kind=%s", payload, pe.Kind)
		}
		if pe.Parsed == nil {
			t.Fatalf("%s: parsed value should be attached", payload)
		}
	}
}

func TestValidate_MalformedSnippet(t *testing.T) {
	long := "{" + strings.Repeat("é", 2500)
	_, err := Validate(long)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Kind != MalformedPayload {
		t.Fatalf("kind=%s", pe.Kind)
	}
	if n := len([]rune(pe.Snippet)); n != 2000 {
		t.Fatalf("snippet length: got=%d want=2000", n)
	}
	if !strings.HasPrefix(long, pe.Snippet) {
		t.Fatalf("snippet must be a prefix of the candidate")
	}
}

func TestValidate_NonObjectIsMalformed(t *testing.T) {
	for _, payload := range []string{`null`, `[1,2]`, `"str"`, ``} {
		_, err := Validate(payload)
		var pe *ParseError
		if !errors.As(err, &pe) || pe.Kind != MalformedPayload {
			t.Fatalf("%q: expected malformed, got %v", payload, err)
		}
	}
}
