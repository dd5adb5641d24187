// Package session holds the loaded updates of a repository and runs the
// review actions that record new marker commits.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/thiagokokada/autosquash-review/internal/apperr"
	"github.com/thiagokokada/autosquash-review/internal/git"
	"github.com/thiagokokada/autosquash-review/internal/history"
	"github.com/thiagokokada/autosquash-review/internal/update"
)

// IdentityHint points users without a configured identity at the setup docs.
const IdentityHint = "Set user.name and user.email, see https://www.git-scm.com/book/en/v2/Getting-Started-First-Time-Git-Setup#_your_identity"

var (
	ErrLoadInProgress = errors.New("history is already being loaded")
	ErrNotLoaded      = errors.New("history has not been loaded")
)

// Repository is everything a session needs from the repository provider.
type Repository interface {
	history.Repository
	RepoPath() string
	Commit(hash string) (*git.Commit, error)
	Identity() (git.Signature, error)
	CreateEmptyCommit(author git.Signature, message string) (string, error)
	Patch(hash string) (string, error)
}

// Tools runs the external editor and commit viewer.
type Tools interface {
	Edit(ctx context.Context, path string) error
	View(ctx context.Context, dir, commit string) error
}

// StateStore remembers the last used review action per repository.
type StateStore interface {
	LastUsedAction(ctx context.Context, repo string) (trailer string, ok bool, err error)
	SetLastUsedAction(ctx context.Context, repo, trailer string) error
}

type Options struct {
	History history.Options
	// Actions is the review action catalog; nil means update.DefaultActions.
	Actions []update.Action
}

type Session struct {
	repo    Repository
	tools   Tools
	store   StateStore
	history history.Options
	catalog []update.Action

	mu       sync.Mutex
	set      *update.Set
	lastUsed int
	loading  bool
}

// New creates a session. store may be nil, in which case the last used
// action only lives as long as the session.
func New(repo Repository, tools Tools, store StateStore, opts Options) *Session {
	catalog := opts.Actions
	if catalog == nil {
		catalog = update.DefaultActions
	}
	return &Session{
		repo:     repo,
		tools:    tools,
		store:    store,
		history:  opts.History,
		catalog:  catalog,
		lastUsed: -1,
	}
}

// Load replaces the updates with a fresh walk of the repository. Only one load
// runs at a time; a failed load keeps the previous updates.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrLoadInProgress
	}
	s.loading = true
	s.mu.Unlock()

	res := <-history.LoadAsync(ctx, s.repo, s.history)
	lastUsed := s.readLastUsed(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if res.Err != nil {
		return res.Err
	}
	s.set = res.Set
	if lastUsed >= 0 {
		s.lastUsed = lastUsed
	}
	return nil
}

func (s *Session) readLastUsed(ctx context.Context) int {
	if s.store == nil {
		return -1
	}
	trailer, ok, err := s.store.LastUsedAction(ctx, s.repo.RepoPath())
	if err != nil {
		slog.Warn("Failed to read last used action", slog.Any("err", err))
		return -1
	}
	if !ok {
		return -1
	}
	return update.IndexOf(s.catalog, trailer)
}

func (s *Session) RepoPath() string {
	return s.repo.RepoPath()
}

// LastUsed returns the catalog index of the last applied action, or -1.
func (s *Session) LastUsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) Updates() []*update.Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Updates()
}

// Views returns the display models of the updates matching filter.
func (s *Session) Views(filter update.Filter) []update.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return update.NewViews(filter.Apply(s.set), s.catalog, s.lastUsed)
}

// View returns the display model of the update with subject.
func (s *Session) View(subject string) (update.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.lookupLocked(subject)
	if err != nil {
		return update.View{}, err
	}
	return update.NewView(u, s.catalog, s.lastUsed), nil
}

func (s *Session) lookupLocked(subject string) (*update.Update, error) {
	if s.set == nil {
		return nil, ErrNotLoaded
	}
	u, ok := s.set.Lookup(subject)
	if !ok {
		return nil, fmt.Errorf("no update with subject %q", subject)
	}
	return u, nil
}

// createEmptyCommit records message on top of the branch and routes the new
// commit to the update with subject. Nothing changes in memory unless the
// commit was written and could be read back.
func (s *Session) createEmptyCommit(subject, message string, author git.Signature) (*git.Commit, error) {
	hash, err := s.repo.CreateEmptyCommit(author, message)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindCommit, "Could not create commit.")
	}
	commit, err := s.repo.Commit(hash)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.KindCommit, "Could not read back commit %s.", hash)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.set.Lookup(subject); ok {
		u.AddCommit(commit)
	}
	slog.Info("Commit created", slog.String("hash", commit.Hash), slog.String("subject", commit.Subject()))
	return commit, nil
}

func (s *Session) identity() (git.Signature, error) {
	sig, err := s.repo.Identity()
	if err == nil {
		return sig, nil
	}
	if errors.Is(err, git.ErrNoIdentity) {
		return git.Signature{}, apperr.Wrap(err, apperr.KindConfig, "Unable to find Git identity.").WithHint(IdentityHint)
	}
	return git.Signature{}, apperr.Wrap(err, apperr.KindConfig, "Unable to read Git identity.").WithHint(IdentityHint)
}
