package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"codenote/internal/annotate"
	"codenote/internal/gateway/service/githubpublish"
	"codenote/internal/publish"
	"codenote/internal/util/jsonutil"
)

const conflictMessage = "Conflict: remote changed. Please pull/merge first or use a new filename."

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonutil.Encode(w, v, false)
}

// decodeBody reads one JSON object. The returned status is 413 when the body
// cap was crossed and 400 for any other decode failure.
func decodeBody(r *http.Request, v any) (int, error) {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return http.StatusRequestEntityTooLarge, err
		}
		return http.StatusBadRequest, err
	}
	return 0, nil
}

// annotateFailure maps an annotate error onto a status and response body.
func annotateFailure(err error) (int, map[string]any) {
	var ae *annotate.Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError, map[string]any{"error": "Server error", "details": err.Error()}
	}
	switch ae.Kind {
	case annotate.KindMissingInput:
		return http.StatusBadRequest, map[string]any{"error": "Missing code"}
	case annotate.KindServiceUnavailable:
		return http.StatusServiceUnavailable, map[string]any{"error": "Generation service not configured"}
	case annotate.KindInvocationFailed:
		details := ae.Detail
		if ae.Err != nil {
			details = ae.Err.Error()
		}
		return http.StatusBadGateway, map[string]any{"error": "AI call failed", "details": details}
	case annotate.KindExtractionFailed:
		body := map[string]any{"error": "AI response contained no text"}
		if ae.Sample != "" {
			body["rawResponseSample"] = ae.Sample
		}
		return http.StatusBadGateway, body
	case annotate.KindInvalidPayload:
		if ae.Parse != nil && ae.Parse.Kind == annotate.MissingRequiredField {
			return http.StatusBadGateway, map[string]any{"error": "AI JSON missing commented_code", "parsed": ae.Parse.Parsed}
		}
		body := map[string]any{"error": "AI returned invalid JSON"}
		if ae.Parse != nil {
			body["snippet"] = ae.Parse.Snippet
		}
		return http.StatusBadGateway, body
	}
	return http.StatusInternalServerError, map[string]any{"error": "Server error", "details": err.Error()}
}

// publishFailure maps a publish error and outcome onto a status and body.
func publishFailure(res publish.Result, err error) (int, map[string]any) {
	switch {
	case errors.Is(err, publish.ErrInvalidRequest):
		return http.StatusBadRequest, map[string]any{"error": err.Error()}
	case errors.Is(err, githubpublish.ErrAnnotationNotFound):
		return http.StatusNotFound, map[string]any{"error": err.Error()}
	}
	body := map[string]any{"outcome": res.Outcome, "details": err.Error()}
	switch res.Outcome {
	case publish.OutcomeConflict:
		body["error"] = conflictMessage
		return http.StatusConflict, body
	case publish.OutcomeRemoteReadFailed:
		body["error"] = "Could not read the remote file"
		return http.StatusBadGateway, body
	case publish.OutcomeRemoteWriteFailed:
		body["error"] = "Could not write the remote file"
		return http.StatusBadGateway, body
	}
	body["error"] = "Server error"
	return http.StatusInternalServerError, body
}

func publishSuccess(res publish.Result) map[string]any {
	out := map[string]any{
		"ok":      true,
		"outcome": res.Outcome,
		"owner":   res.Owner,
		"path":    res.Path,
		"branch":  res.Branch,
	}
	if res.SHA != "" {
		out["sha"] = res.SHA
	}
	return out
}

// bearerToken accepts "Bearer <t>" and "token <t>".
func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	for _, prefix := range []string{"Bearer ", "bearer ", "token ", "Token "} {
		if strings.HasPrefix(raw, prefix) {
			return strings.TrimSpace(raw[len(prefix):])
		}
	}
	return ""
}
