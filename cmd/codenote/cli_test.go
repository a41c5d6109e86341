package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(environment{
		getenv: func(k string) string { return env[k] },
		stdout: &stdout,
		stderr: &stderr,
	})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func groqServer(t *testing.T, annotated string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := json.Marshal(map[string]string{"commented_code": annotated, "pattern": "Assignment"})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": string(payload)}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fakeGitHub struct {
	mu    sync.Mutex
	files map[string]string
	puts  int
}

func (g *fakeGitHub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"login":"octo"}`)
	})
	mux.HandleFunc("/repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()
		key := r.PathValue("owner") + "/" + r.PathValue("repo") + "/" + r.PathValue("path")
		switch r.Method {
		case http.MethodGet:
			content, ok := g.files[key]
			if !ok {
				http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"type": "file", "sha": "sha-1", "content": content, "encoding": "base64"})
		case http.MethodPut:
			var body struct {
				Content string `json:"content"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			g.files[key] = body.Content
			g.puts++
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"content":{"sha":"sha-new"}}`)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeSource(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestAnnotateCommand(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.py", "x = 1")
	env := map[string]string{
		"LLM_PROVIDER":  "groq",
		"GROQ_API_KEY":  "k",
		"GROQ_BASE_URL": groqServer(t, "x = 1  # one").URL,
	}

	out, err := run(t, env, "-C", dir, "annotate", "a.py")
	require.NoError(t, err)
	assert.Equal(t, "x = 1  # one\n", out)

	out, err = run(t, env, "-C", dir, "annotate", "--json", "a.py")
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "python", rec["language"])
	assert.Equal(t, "Assignment", rec["pattern"])
	assert.Equal(t, "x = 1", rec["original_code"])
}

func TestAnnotateCommand_SaveToSQLite(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.go", "package a")
	env := map[string]string{
		"LLM_PROVIDER":     "groq",
		"GROQ_API_KEY":     "k",
		"GROQ_BASE_URL":    groqServer(t, "// Package a.\npackage a").URL,
		"ANNOTATION_STORE": "sqlite",
		"SQLITE_PATH":      filepath.Join(dir, "notes.db"),
	}
	out, err := run(t, env, "-C", dir, "annotate", "--json", "--save", "a.go")
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.NotEmpty(t, rec["id"])
	assert.FileExists(t, filepath.Join(dir, "notes.db"))
}

func TestAnnotateCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.py", "x = 1")

	_, err := run(t, map[string]string{}, "-C", dir, "annotate", "a.py")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")

	_, err = run(t, map[string]string{"GEMINI_API_KEY": "k"}, "-C", dir, "annotate", "../a.py")
	require.Error(t, err)
}

func TestPublishCommand(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.py", "x = 1")
	gh := &fakeGitHub{files: map[string]string{}}
	env := map[string]string{
		"GITHUB_TOKEN":   "t",
		"GITHUB_API_URL": gh.server(t).URL,
	}

	out, err := run(t, env, "-C", dir, "publish", "--repo", "notes", "--path", "/src/a.py", "a.py")
	require.NoError(t, err)
	assert.Equal(t, "created octo/notes/src/a.py@main sha-new\n", out)

	out, err = run(t, env, "-C", dir, "publish", "--repo", "notes", "--path", "src/a.py", "a.py")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "no_change "), out)
	assert.Equal(t, 1, gh.puts)
}

func TestPublishCommand_Annotated(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.py", "x = 1")
	gh := &fakeGitHub{files: map[string]string{}}
	env := map[string]string{
		"GITHUB_TOKEN":   "t",
		"GITHUB_API_URL": gh.server(t).URL,
		"LLM_PROVIDER":   "groq",
		"GROQ_API_KEY":   "k",
		"GROQ_BASE_URL":  groqServer(t, "x = 1  # one").URL,
	}
	out, err := run(t, env, "-C", dir, "publish", "--owner", "me", "--repo", "notes", "--branch", "dev", "--annotate", "a.py")
	require.NoError(t, err)
	assert.Equal(t, "created me/notes/a.py@dev sha-new\n", out)
	assert.Equal(t, "eCA9IDEgICMgb25l", gh.files["me/notes/a.py"])
}

func TestPublishCommand_RequiresToken(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.py", "x = 1")
	_, err := run(t, map[string]string{}, "-C", dir, "publish", "--repo", "r", "a.py")
	require.EqualError(t, err, "GITHUB_TOKEN is not set")
}

func TestLanguageFromPath(t *testing.T) {
	assert.Equal(t, "typescript", languageFromPath("web/App.TSX"))
	assert.Equal(t, "", languageFromPath("Makefile"))
}
