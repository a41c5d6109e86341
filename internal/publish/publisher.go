package publish

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Observer receives every state the publisher enters, in order.
type Observer func(State)

// Publisher runs the read, decide, write protocol against a ContentStore.
type Publisher struct {
	store  ContentStore
	owners OwnerResolver
	logger *zap.Logger
	branch string
}

type Option func(*Publisher)

func WithOwnerResolver(r OwnerResolver) Option {
	return func(p *Publisher) { p.owners = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithDefaultBranch sets the branch used when a request names none.
func WithDefaultBranch(b string) Option {
	return func(p *Publisher) {
		if b = strings.TrimSpace(b); b != "" {
			p.branch = b
		}
	}
}

func New(store ContentStore, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: zap.NewNop(), branch: DefaultBranch}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish makes the remote path hold req.Content. The returned error is nil
// for no_change, created and updated; otherwise it wraps the cause and
// Result.Outcome names the failure. Conflicts are never retried.
func (p *Publisher) Publish(ctx context.Context, req Request) (Result, error) {
	return p.PublishObserved(ctx, req, nil)
}

// PublishObserved is Publish with a per-call observer.
func (p *Publisher) PublishObserved(ctx context.Context, req Request, observe Observer) (Result, error) {
	req, err := p.normalize(req)
	if err != nil {
		return Result{}, err
	}
	res := Result{Owner: req.Owner, Path: req.Path, Branch: req.Branch}
	log := p.logger.With(zap.String("repo", req.Repo), zap.String("path", req.Path), zap.String("branch", req.Branch))

	enter := func(s State) {
		if observe != nil {
			observe(s)
		}
	}

	enter(StateReadingRemote)
	if res.Owner == "" {
		owner, err := p.resolveOwner(ctx, req.Token)
		if err != nil {
			return p.finish(log, enter, res, OutcomeRemoteReadFailed, fmt.Errorf("resolve owner: %w", err))
		}
		res.Owner = owner
		req.Owner = owner
	}
	log = log.With(zap.String("owner", res.Owner))

	remote, err := p.store.GetFile(ctx, req.Token, req.Owner, req.Repo, req.Path, req.Branch)
	present := true
	switch {
	case errors.Is(err, ErrNotFound):
		present = false
	case err != nil:
		return p.finish(log, enter, res, OutcomeRemoteReadFailed, fmt.Errorf("read remote: %w", err))
	}

	enter(StateDeciding)
	local := base64.StdEncoding.EncodeToString(req.Content)
	if present && canonical(remote.Content) == local {
		res.SHA = remote.SHA
		return p.finish(log, enter, res, OutcomeNoChange, nil)
	}

	put := PutRequest{
		Owner:   req.Owner,
		Repo:    req.Repo,
		Path:    req.Path,
		Branch:  req.Branch,
		Content: local,
		Token:   req.Token,
	}
	if present {
		enter(StateWritingUpdate)
		put.SHA = remote.SHA
		put.Message = commitMessage(req, "Update")
		out, err := p.store.PutFile(ctx, put)
		switch {
		case errors.Is(err, ErrConflict):
			return p.finish(log, enter, res, OutcomeConflict, fmt.Errorf("update remote: %w", err))
		case err != nil:
			return p.finish(log, enter, res, OutcomeRemoteWriteFailed, fmt.Errorf("update remote: %w", err))
		}
		res.SHA = out.SHA
		return p.finish(log, enter, res, OutcomeUpdated, nil)
	}

	enter(StateWritingCreate)
	put.Message = commitMessage(req, "Add")
	out, err := p.store.PutFile(ctx, put)
	if err != nil {
		return p.finish(log, enter, res, OutcomeRemoteWriteFailed, fmt.Errorf("create remote: %w", err))
	}
	res.SHA = out.SHA
	return p.finish(log, enter, res, OutcomeCreated, nil)
}

func (p *Publisher) finish(log *zap.Logger, enter func(State), res Result, outcome Outcome, err error) (Result, error) {
	res.Outcome = outcome
	enter(StateDone)
	if err != nil {
		log.Warn("publish failed", zap.String("outcome", string(outcome)), zap.Error(err))
		return res, err
	}
	log.Info("publish finished", zap.String("outcome", string(outcome)), zap.String("sha", res.SHA))
	return res, nil
}

func (p *Publisher) normalize(req Request) (Request, error) {
	req.Owner = strings.TrimSpace(req.Owner)
	req.Repo = strings.TrimSpace(req.Repo)
	req.Path = strings.Trim(strings.TrimSpace(req.Path), "/")
	req.Branch = strings.TrimSpace(req.Branch)
	req.Token = strings.TrimSpace(req.Token)
	if req.Branch == "" {
		req.Branch = p.branch
	}
	switch {
	case p.store == nil:
		return req, fmt.Errorf("%w: no content store", ErrInvalidRequest)
	case req.Repo == "":
		return req, fmt.Errorf("%w: repo is required", ErrInvalidRequest)
	case req.Path == "":
		return req, fmt.Errorf("%w: path is required", ErrInvalidRequest)
	case req.Token == "":
		return req, fmt.Errorf("%w: token is required", ErrInvalidRequest)
	case req.Owner == "" && p.owners == nil:
		return req, fmt.Errorf("%w: owner is required", ErrInvalidRequest)
	}
	return req, nil
}

func (p *Publisher) resolveOwner(ctx context.Context, token string) (string, error) {
	login, err := p.owners.Login(ctx, token)
	if err != nil {
		return "", err
	}
	login = strings.TrimSpace(login)
	if login == "" {
		return "", errors.New("empty login")
	}
	return login, nil
}

func commitMessage(req Request, verb string) string {
	if m := strings.TrimSpace(req.Message); m != "" {
		return m
	}
	return fmt.Sprintf("%s %s (via codenote)", verb, req.Path)
}

// canonical drops the line breaks and padding whitespace the store may insert
// into base64 content.
func canonical(b64 string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, b64)
}
