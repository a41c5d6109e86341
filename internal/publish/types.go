package publish

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by ContentStore.GetFile when the path does not exist.
	ErrNotFound = errors.New("publish: remote file not found")
	// ErrConflict is returned by ContentStore.PutFile when the fingerprint is stale.
	ErrConflict = errors.New("publish: remote changed since it was read")
	// ErrInvalidRequest is returned before any network call when inputs are missing.
	ErrInvalidRequest = errors.New("publish: invalid request")
)

const DefaultBranch = "main"

// RemoteFile is the Present state of a remote path. Content is base64 as the
// store returns it and may contain line breaks.
type RemoteFile struct {
	SHA     string
	Content string
}

// PutRequest is one create (SHA empty) or update (SHA set) write.
type PutRequest struct {
	Owner   string
	Repo    string
	Path    string
	Branch  string
	Message string
	// Content is base64 encoded.
	Content string
	SHA     string
	Token   string
}

// PutResult carries the fingerprint of the written content when the store reports one.
type PutResult struct {
	SHA string
}

// ContentStore is the remote file capability. GetFile returns ErrNotFound for
// an absent path; PutFile returns ErrConflict for a stale fingerprint.
type ContentStore interface {
	GetFile(ctx context.Context, token, owner, repo, path, branch string) (RemoteFile, error)
	PutFile(ctx context.Context, req PutRequest) (PutResult, error)
}

// OwnerResolver looks up the account that owns token.
type OwnerResolver interface {
	Login(ctx context.Context, token string) (string, error)
}

type Request struct {
	Owner  string
	Repo   string
	Path   string
	Branch string
	// Content is the accepted text, raw bytes.
	Content []byte
	Token   string
	// Message overrides the generated commit message.
	Message string
}

type Outcome string

const (
	OutcomeNoChange          Outcome = "no_change"
	OutcomeCreated           Outcome = "created"
	OutcomeUpdated           Outcome = "updated"
	OutcomeConflict          Outcome = "conflict"
	OutcomeRemoteReadFailed  Outcome = "remote_read_failed"
	OutcomeRemoteWriteFailed Outcome = "remote_write_failed"
)

// Succeeded reports whether the remote now holds the requested content.
func (o Outcome) Succeeded() bool {
	return o == OutcomeNoChange || o == OutcomeCreated || o == OutcomeUpdated
}

type State string

const (
	StateReadingRemote State = "reading_remote"
	StateDeciding      State = "deciding"
	StateWritingCreate State = "writing_create"
	StateWritingUpdate State = "writing_update"
	StateDone          State = "done"
)

type Result struct {
	Outcome Outcome
	Owner   string
	Path    string
	Branch  string
	// SHA is the fingerprint after a write, or the unchanged remote fingerprint.
	SHA string
}
