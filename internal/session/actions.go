package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/thiagokokada/autosquash-review/internal/git"
	"github.com/thiagokokada/autosquash-review/internal/message"
	"github.com/thiagokokada/autosquash-review/internal/update"
)

// MarkReviewed records an empty squash! commit adding "<trailer>: <you>" to
// the update with subject, and remembers trailer as the last used action.
func (s *Session) MarkReviewed(ctx context.Context, subject, trailer string) (*git.Commit, error) {
	idx := update.IndexOf(s.catalog, trailer)
	if idx < 0 {
		return nil, fmt.Errorf("unknown review action %q", trailer)
	}
	s.mu.Lock()
	_, err := s.lookupLocked(subject)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	author, err := s.identity()
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("%s%s\n\n%s: %s", message.SquashPrefix, subject, trailer, author)
	commit, err := s.createEmptyCommit(subject, msg, author)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastUsed = idx
	s.mu.Unlock()
	if s.store != nil {
		if err := s.store.SetLastUsedAction(ctx, s.repo.RepoPath(), trailer); err != nil {
			slog.Warn("Failed to remember last used action", slog.Any("err", err))
		}
	}
	return commit, nil
}

// Edit is a recorded change to the final message of an update.
type Edit struct {
	Commit *git.Commit
	// Diff is the unified diff from the previous final message to the new one.
	Diff string
}

// EditMessage opens the final message of the update with subject in an
// editor. An edited message is recorded as an empty amend! commit; an empty
// or unchanged one is ignored and nil is returned.
func (s *Session) EditMessage(ctx context.Context, subject string) (*Edit, error) {
	s.mu.Lock()
	u, err := s.lookupLocked(subject)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if u.Editing() {
		s.mu.Unlock()
		return nil, fmt.Errorf("message of %q is already being edited", subject)
	}
	u.SetEditing(true)
	old := u.EditableMessage()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		u.SetEditing(false)
		s.mu.Unlock()
	}()

	edited, err := s.editText(ctx, old)
	if err != nil {
		return nil, err
	}
	if edited == "" || edited == old {
		slog.Info("Message left unchanged", slog.String("subject", subject))
		return nil, nil
	}
	diff, err := MessageDiff(old, edited)
	if err != nil {
		return nil, err
	}
	slog.Debug("Message edited", slog.String("subject", subject), slog.String("diff", diff))

	author, err := s.identity()
	if err != nil {
		return nil, err
	}
	commit, err := s.createEmptyCommit(subject, fmt.Sprintf("%s%s\n\n%s", message.AmendPrefix, subject, edited), author)
	if err != nil {
		return nil, err
	}
	return &Edit{Commit: commit, Diff: diff}, nil
}

// editText round-trips text through the editor using a private
// COMMIT_EDITMSG file that is removed on every path.
func (s *Session) editText(ctx context.Context, text string) (string, error) {
	dir, err := os.MkdirTemp("", "autosquash-review-")
	if err != nil {
		return "", fmt.Errorf("create temporary directory: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "COMMIT_EDITMSG")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := s.tools.Edit(ctx, path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// MessageDiff returns the unified diff between two commit messages.
func MessageDiff(old, edited string) (string, error) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(old + "\n"),
		B:        difflib.SplitLines(edited + "\n"),
		FromFile: "a/COMMIT_EDITMSG",
		ToFile:   "b/COMMIT_EDITMSG",
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diff commit messages: %w", err)
	}
	return diff, nil
}

// ViewCommit shows commit id in the external viewer.
func (s *Session) ViewCommit(ctx context.Context, id string) error {
	return s.tools.View(ctx, s.repo.RepoPath(), id)
}

// Patch returns the header and diff of the commit revision id names.
func (s *Session) Patch(id string) (string, error) {
	hash, err := s.repo.ResolveRevision(id)
	if err != nil {
		return "", err
	}
	return s.repo.Patch(hash)
}

// EnsureCoauthors records, for every update with unacknowledged authors, an
// empty squash! commit with the missing Co-authored-by trailers.
func (s *Session) EnsureCoauthors(ctx context.Context) ([]*git.Commit, error) {
	s.mu.Lock()
	if s.set == nil {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	findings := update.FindMissingCoauthors(s.set)
	s.mu.Unlock()
	if len(findings) == 0 {
		return nil, nil
	}

	author, err := s.identity()
	if err != nil {
		return nil, err
	}
	var created []*git.Commit
	for _, f := range findings {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		lines := make([]string, 0, len(f.Missing))
		for _, m := range f.Missing {
			lines = append(lines, fmt.Sprintf("%s: %s", message.CoAuthoredBy, m))
		}
		msg := fmt.Sprintf("%s%s\n\n%s", message.SquashPrefix, f.Update.Subject, strings.Join(lines, "\n"))
		commit, err := s.createEmptyCommit(f.Update.Subject, msg, author)
		if err != nil {
			return created, err
		}
		created = append(created, commit)
	}
	return created, nil
}
