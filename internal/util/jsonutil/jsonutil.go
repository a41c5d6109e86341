package jsonutil

import (
	"bytes"
	"encoding/json"
	"io"
)

// Encode writes v as JSON followed by a newline. Annotated source is full of
// <, > and &, so HTML escaping is off.
func Encode(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// MarshalNoEscape is json.Marshal without HTML escaping.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, false); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
