package annotate

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

type shapeMatcher struct {
	name  string
	match func(v any) (string, bool)
}

// shapeMatchers are tried in order; the first non-empty string wins.
var shapeMatchers = []shapeMatcher{
	{name: "string", match: matchDirectString},
	{name: "text", match: matchTextField},
	{name: "output.content", match: matchOutputContent},
	{name: "candidates.string", match: matchCandidateString},
	{name: "generated_text", match: matchGeneratedText},
	{name: "candidates.message.content", match: matchCandidateMessageContent},
	{name: "candidates.content.parts", match: matchCandidateParts},
	{name: "choices.message.content", match: matchChoiceMessage},
}

// Extract returns the single best-effort text carried by a generation
// response of unknown shape. It never panics on partial or malformed input.
func Extract(raw any) (string, bool) {
	text, _, ok := ExtractWithShape(raw)
	return text, ok
}

// ExtractWithShape is Extract that also names the matcher that produced the
// text ("search" for the fallback scan).
func ExtractWithShape(raw any) (string, string, bool) {
	v := normalizeRaw(raw)
	if v == nil {
		return "", "", false
	}
	for _, m := range shapeMatchers {
		if s, ok := m.match(v); ok {
			return s, m.name, true
		}
	}
	if s, ok := searchForString(v, map[containerKey]bool{}); ok {
		return s, "search", true
	}
	return "", "", false
}

// normalizeRaw projects typed values onto their generic JSON shape so every
// matcher only has to deal with string, map[string]any and []any. Nested Go
// containers are projected too. A container reached again while it is still
// being projected becomes nil, so the result is always acyclic.
func normalizeRaw(raw any) any {
	p := &projector{memo: map[containerKey]any{}, busy: map[containerKey]bool{}}
	return p.project(raw)
}

// containerKey identifies a map, slice or pointer by type, address and length.
type containerKey struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

type projector struct {
	memo map[containerKey]any
	busy map[containerKey]bool
}

func (p *projector) project(raw any) any {
	switch x := raw.(type) {
	case nil:
		return nil
	case string, bool, float64, json.Number:
		return x
	case json.RawMessage:
		return decodeOrString(x)
	case []byte:
		return decodeOrString(x)
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		if rv.Elem().Kind() == reflect.Struct {
			return viaJSON(raw)
		}
		return p.container(rv, func() any { return p.project(rv.Elem().Interface()) })
	case reflect.Struct:
		return viaJSON(raw)
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		return p.container(rv, func() any {
			out := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[mapKey(iter.Key())] = p.project(iter.Value().Interface())
			}
			return out
		})
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return decodeOrString(rv.Bytes())
		}
		return p.container(rv, func() any { return p.elements(rv) })
	case reflect.Array:
		return p.elements(rv)
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return nil
}

func (p *projector) elements(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = p.project(rv.Index(i).Interface())
	}
	return out
}

func (p *projector) container(rv reflect.Value, build func() any) any {
	k := keyOf(rv)
	if out, ok := p.memo[k]; ok {
		return out
	}
	if p.busy[k] {
		return nil
	}
	p.busy[k] = true
	out := build()
	delete(p.busy, k)
	p.memo[k] = out
	return out
}

func keyOf(rv reflect.Value) containerKey {
	k := containerKey{typ: rv.Type(), ptr: rv.Pointer()}
	if rv.Kind() != reflect.Pointer {
		k.n = rv.Len()
	}
	return k
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

// viaJSON projects structs through their JSON encoding so field tags decide
// the key names, as they do on the wire.
func viaJSON(raw any) any {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

func decodeOrString(b []byte) any {
	if json.Valid(b) {
		var out any
		if err := json.Unmarshal(b, &out); err == nil {
			return out
		}
	}
	return string(b)
}

func field(v any, key string) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func nonEmpty(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func matchDirectString(v any) (string, bool) {
	return nonEmpty(v)
}

func matchTextField(v any) (string, bool) {
	return nonEmpty(field(v, "text"))
}

func matchOutputContent(v any) (string, bool) {
	for _, o := range list(field(v, "output")) {
		items := list(field(o, "content"))
		for _, c := range items {
			if field(c, "type") == "output_text" {
				if s, ok := nonEmpty(field(c, "text")); ok {
					return s, true
				}
			}
		}
		for _, c := range items {
			if s, ok := nonEmpty(field(c, "text")); ok {
				return s, true
			}
			if inner := list(c); len(inner) > 0 {
				if s, ok := nonEmpty(inner[0]); ok {
					return s, true
				}
			}
		}
		if s, ok := nonEmpty(field(o, "content")); ok {
			return s, true
		}
		if s, ok := nonEmpty(field(o, "text")); ok {
			return s, true
		}
	}
	return "", false
}

func matchCandidateString(v any) (string, bool) {
	for _, c := range list(field(v, "candidates")) {
		for _, key := range []string{"content", "output", "message"} {
			if s, ok := nonEmpty(field(c, key)); ok {
				return s, true
			}
		}
	}
	return "", false
}

func matchGeneratedText(v any) (string, bool) {
	for _, item := range list(v) {
		if s, ok := nonEmpty(field(item, "generated_text")); ok {
			return s, true
		}
	}
	return "", false
}

func matchCandidateMessageContent(v any) (string, bool) {
	for _, c := range list(field(v, "candidates")) {
		for _, item := range list(field(field(c, "message"), "content")) {
			if s, ok := nonEmpty(field(item, "text")); ok {
				return s, true
			}
		}
	}
	return "", false
}

// matchCandidateParts reads the native Gemini layout. Text parts of one
// candidate are concatenated; thought parts are skipped.
func matchCandidateParts(v any) (string, bool) {
	for _, c := range list(field(v, "candidates")) {
		var b strings.Builder
		for _, p := range list(field(field(c, "content"), "parts")) {
			if thought, _ := field(p, "thought").(bool); thought {
				continue
			}
			if s, ok := field(p, "text").(string); ok {
				b.WriteString(s)
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s, true
		}
	}
	return "", false
}

func matchChoiceMessage(v any) (string, bool) {
	for _, c := range list(field(v, "choices")) {
		if s, ok := nonEmpty(field(field(c, "message"), "content")); ok {
			return s, true
		}
	}
	return "", false
}

// searchForString walks nested fields depth-first, visiting map keys in
// sorted order, and returns the first non-empty string. Shared containers are
// searched once.
func searchForString(v any, seen map[containerKey]bool) (string, bool) {
	switch x := v.(type) {
	case string:
		return nonEmpty(x)
	case map[string]any:
		if !visit(seen, reflect.ValueOf(x)) {
			return "", false
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := searchForString(x[k], seen); ok {
				return s, true
			}
		}
	case []any:
		if !visit(seen, reflect.ValueOf(x)) {
			return "", false
		}
		for _, item := range x {
			if s, ok := searchForString(item, seen); ok {
				return s, true
			}
		}
	}
	return "", false
}

// visit reports whether rv has not been searched yet and marks it.
func visit(seen map[containerKey]bool, rv reflect.Value) bool {
	if rv.Len() == 0 {
		return false
	}
	k := keyOf(rv)
	if seen[k] {
		return false
	}
	seen[k] = true
	return true
}
