package jsonutil

import (
	"bytes"
	"testing"
)

func TestMarshalNoEscape(t *testing.T) {
	b, err := MarshalNoEscape(map[string]string{"c": "if a < b && c > d {}"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(b), `{"c":"if a < b && c > d {}"}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestEncodeIndent(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, map[string]int{"a": 1}, true); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got, want := buf.String(), "{\n  \"a\": 1\n}\n"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
