// Package github talks to the GitHub REST contents API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codenote/internal/publish"
)

const (
	DefaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
)

// Client implements publish.ContentStore and publish.OwnerResolver.
type Client struct {
	http    *http.Client
	baseURL string
}

var (
	_ publish.ContentStore  = (*Client)(nil)
	_ publish.OwnerResolver = (*Client)(nil)
)

// NewClient returns a client for baseURL (DefaultBaseURL when empty).
// A zero timeout means 30 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{http: hc, baseURL: baseURL}
}

// APIError is a non-success response the caller has no sentinel for.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github: status %d", e.Status)
	}
	return fmt.Sprintf("github: status %d: %s", e.Status, e.Message)
}

type contentResp struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Type     string `json:"type"`
}

type putBody struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type putResp struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

type userResp struct {
	Login string `json:"login"`
}

// GetFile fetches path at branch. A missing path is publish.ErrNotFound.
func (c *Client) GetFile(ctx context.Context, token, owner, repo, path, branch string) (publish.RemoteFile, error) {
	u := c.contentsURL(owner, repo, path)
	if branch != "" {
		u += "?ref=" + url.QueryEscape(branch)
	}
	var out contentResp
	status, err := c.do(ctx, http.MethodGet, u, token, nil, &out)
	if err != nil {
		if status == http.StatusNotFound {
			return publish.RemoteFile{}, fmt.Errorf("%w: %s", publish.ErrNotFound, path)
		}
		return publish.RemoteFile{}, err
	}
	if out.Type != "" && out.Type != "file" {
		return publish.RemoteFile{}, fmt.Errorf("github: %s is a %s, not a file", path, out.Type)
	}
	return publish.RemoteFile{SHA: out.SHA, Content: out.Content}, nil
}

// PutFile creates (no SHA) or updates (SHA set) a file. A stale SHA is
// publish.ErrConflict.
func (c *Client) PutFile(ctx context.Context, req publish.PutRequest) (publish.PutResult, error) {
	body := putBody{Message: req.Message, Content: req.Content, Branch: req.Branch, SHA: req.SHA}
	var out putResp
	status, err := c.do(ctx, http.MethodPut, c.contentsURL(req.Owner, req.Repo, req.Path), req.Token, body, &out)
	if err != nil {
		if status == http.StatusConflict {
			return publish.PutResult{}, fmt.Errorf("%w: %v", publish.ErrConflict, err)
		}
		return publish.PutResult{}, err
	}
	return publish.PutResult{SHA: out.Content.SHA}, nil
}

// Login returns the account name that owns token.
func (c *Client) Login(ctx context.Context, token string) (string, error) {
	var out userResp
	if _, err := c.do(ctx, http.MethodGet, c.baseURL+"/user", token, nil, &out); err != nil {
		return "", err
	}
	if out.Login == "" {
		return "", errors.New("github: user response has no login")
	}
	return out.Login, nil
}

func (c *Client) contentsURL(owner, repo, path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, url.PathEscape(owner), url.PathEscape(repo), strings.Join(segs, "/"))
}

// do sends one request and decodes a 2xx body into out. The status code is
// returned alongside any error so callers can map it to a sentinel.
func (c *Client) do(ctx context.Context, method, u, token string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &msg) != nil || msg.Message == "" {
			msg.Message = strings.TrimSpace(string(raw))
		}
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: msg.Message}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("github: decode %s %s: %w", method, req.URL.Path, err)
		}
	}
	return resp.StatusCode, nil
}
