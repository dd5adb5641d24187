package git

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNoIdentity is returned when user.name or user.email is not configured.
var ErrNoIdentity = errors.New("git identity not configured")

var now = time.Now

// Identity reads user.name and user.email from the repository configuration,
// falling back to the global one.
func (s *Service) Identity() (Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return Signature{}, fmt.Errorf("read config: %w", err)
	}
	name := strings.TrimSpace(cfg.User.Name)
	email := strings.TrimSpace(cfg.User.Email)
	if name == "" || email == "" {
		return Signature{}, ErrNoIdentity
	}
	return Signature{Name: name, Email: email, When: now()}, nil
}

// CreateEmptyCommit records a commit on top of the current branch tip that
// reuses the tip's tree, then advances the branch to it and returns the new
// hash. The branch is only moved if it still points at the tip that was read.
func (s *Service) CreateEmptyCommit(author Signature, message string) (string, error) {
	if author.When.IsZero() {
		author.When = now()
	}
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tip, err := s.repo.Reference(plumbing.HEAD, true)
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	current, err := s.repo.CommitObject(tip.Hash())
	if err != nil {
		return "", fmt.Errorf("read commit %s: %w", tip.Hash(), err)
	}
	sig := object.Signature{Name: author.Name, Email: author.Email, When: author.When}
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     current.TreeHash,
		ParentHashes: []plumbing.Hash{current.Hash},
	}
	obj := s.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return "", fmt.Errorf("encode commit: %w", err)
	}
	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("write commit: %w", err)
	}
	if err := s.repo.Storer.CheckAndSetReference(plumbing.NewHashReference(tip.Name(), hash), tip); err != nil {
		return "", fmt.Errorf("update %s: %w", refName(tip), err)
	}
	slog.Debug("commit created",
		slog.String("hash", hash.String()),
		slog.String("parent", current.Hash.String()),
		slog.String("ref", tip.Name().String()),
	)
	return hash.String(), nil
}
