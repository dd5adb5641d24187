package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/thiagokokada/autosquash-review/internal/apperr"
	"github.com/thiagokokada/autosquash-review/internal/git"
	"github.com/thiagokokada/autosquash-review/internal/history"
	"github.com/thiagokokada/autosquash-review/internal/update"
)

var (
	alice = git.Signature{Name: "Alice", Email: "alice@example.com"}
	bob   = git.Signature{Name: "Bob", Email: "bob@example.com"}
	me    = git.Signature{Name: "Me", Email: "me@example.com"}
)

// fakeRepo is a linear in-memory history.
type fakeRepo struct {
	mu       sync.Mutex
	commits  []*git.Commit
	identity func() (git.Signature, error)
	create   func(author git.Signature, message string) (string, error)
}

func newFakeRepo(commits ...*git.Commit) *fakeRepo {
	r := &fakeRepo{}
	for _, c := range commits {
		r.push(c)
	}
	return r
}

func (r *fakeRepo) push(c *git.Commit) {
	if n := len(r.commits); n > 0 {
		c.ParentHashes = []string{r.commits[n-1].Hash}
	}
	if c.Hash == "" {
		c.Hash = fmt.Sprintf("%040x", len(r.commits)+1)
	}
	r.commits = append(r.commits, c)
}

func (r *fakeRepo) Head() (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.commits) == 0 {
		return "", "", git.ErrNoCommits
	}
	return r.commits[len(r.commits)-1].Hash, "update", nil
}

func (r *fakeRepo) ResolveRevision(spec string) (string, error) { return spec, nil }
func (r *fakeRepo) Remotes() ([]git.Remote, error)              { return nil, nil }
func (r *fakeRepo) RemoteBranch(string, string) (string, bool, error) {
	return "", false, nil
}
func (r *fakeRepo) MergeBase(string, string) (string, bool, error) { return "", false, nil }

func (r *fakeRepo) Walk(from string, hide []string, limit int) ([]*git.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*git.Commit
	for _, c := range r.commits {
		if slices.Contains(hide, c.Hash) {
			out = nil
			continue
		}
		out = append(out, c)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *fakeRepo) RepoPath() string { return "/src/nixpkgs" }

func (r *fakeRepo) Commit(hash string) (*git.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.commits {
		if c.Hash == hash {
			return c, nil
		}
	}
	return nil, fmt.Errorf("commit %s not found", hash)
}

func (r *fakeRepo) Identity() (git.Signature, error) {
	if r.identity != nil {
		return r.identity()
	}
	return me, nil
}

func (r *fakeRepo) CreateEmptyCommit(author git.Signature, message string) (string, error) {
	if r.create != nil {
		return r.create(author, message)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &git.Commit{Author: author, Committer: author, Message: message + "\n"}
	r.push(c)
	return c.Hash, nil
}

func (r *fakeRepo) Patch(hash string) (string, error) { return "patch " + hash, nil }

func (r *fakeRepo) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.commits {
		out = append(out, strings.TrimSuffix(c.Message, "\n"))
	}
	return out
}

type fakeTools struct {
	edit   func(path string) error
	viewed []string
}

func (f *fakeTools) Edit(_ context.Context, path string) error {
	if f.edit == nil {
		return nil
	}
	return f.edit(path)
}

func (f *fakeTools) View(_ context.Context, dir, commit string) error {
	f.viewed = append(f.viewed, dir+"@"+commit)
	return nil
}

type memStore struct {
	trailers map[string]string
}

func (m *memStore) LastUsedAction(_ context.Context, repo string) (string, bool, error) {
	t, ok := m.trailers[repo]
	return t, ok, nil
}

func (m *memStore) SetLastUsedAction(_ context.Context, repo, trailer string) error {
	if m.trailers == nil {
		m.trailers = make(map[string]string)
	}
	m.trailers[repo] = trailer
	return nil
}

const glib = "glib: 2.78.4 → 2.80.0"

func loadedSession(t *testing.T, repo *fakeRepo, tools *fakeTools, store StateStore) *Session {
	t.Helper()
	if tools == nil {
		tools = &fakeTools{}
	}
	s := New(repo, tools, store, Options{History: history.Options{Base: "none"}})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return s
}

func TestLoadAndViews(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(
		&git.Commit{Author: alice, Message: glib + "\n\nhttps://example.com/glib\n", Changes: 1},
		&git.Commit{Author: alice, Message: "gtk4: 4.12.5 → 4.14.0\n", Changes: 1},
	)
	s := loadedSession(t, repo, nil, nil)

	views := s.Views(update.Filter{})
	if len(views) != 2 || views[0].Subject != glib {
		t.Fatalf("Views() = %+v", views)
	}
	if views[0].ChangelogLink != "https://example.com/glib" || views[1].ChangelogMarkup != "No changelog detected." {
		t.Fatalf("unexpected changelog data: %+v", views)
	}
	if got := s.Views(update.Filter{Query: "gtk"}); len(got) != 1 {
		t.Fatalf("filtered Views() = %+v", got)
	}
	if _, err := s.View("missing"); err == nil {
		t.Fatal("expected error for unknown subject")
	}
}

func TestOperationsBeforeLoad(t *testing.T) {
	t.Parallel()

	s := New(newFakeRepo(), &fakeTools{}, nil, Options{})
	if _, err := s.EnsureCoauthors(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("EnsureCoauthors() error = %v", err)
	}
	if _, err := s.MarkReviewed(context.Background(), glib, "Tested-by"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("MarkReviewed() error = %v", err)
	}
	if len(s.Updates()) != 0 {
		t.Fatal("expected no updates")
	}
}

func TestFailedLoadKeepsPreviousUpdates(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(&git.Commit{Author: alice, Message: glib, Changes: 1})
	s := loadedSession(t, repo, nil, nil)

	repo.mu.Lock()
	repo.commits = nil
	repo.mu.Unlock()
	if err := s.Load(context.Background()); !errors.Is(err, git.ErrNoCommits) {
		t.Fatalf("Load() error = %v", err)
	}
	if len(s.Updates()) != 1 {
		t.Fatal("failed load must not discard the previous updates")
	}
}

func TestMarkReviewed(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(&git.Commit{Author: alice, Message: glib + "\n\nhttps://example.com/glib", Changes: 1})
	store := &memStore{}
	s := loadedSession(t, repo, nil, store)

	commit, err := s.MarkReviewed(context.Background(), glib, "Changelog-reviewed-by")
	if err != nil {
		t.Fatalf("MarkReviewed() error: %v", err)
	}
	want := "squash! " + glib + "\n\nChangelog-reviewed-by: Me <me@example.com>"
	if got := strings.TrimSuffix(commit.Message, "\n"); got != want {
		t.Fatalf("commit message = %q, want %q", got, want)
	}

	v, err := s.View(glib)
	if err != nil {
		t.Fatalf("View() error: %v", err)
	}
	if !v.Reviewed || len(v.Commits) != 2 {
		t.Fatalf("view after review = %+v", v)
	}
	if len(v.Actions) != 1 || v.Actions[0].Trailer != "Tested-by" {
		t.Fatalf("Actions = %+v", v.Actions)
	}
	if s.LastUsed() != 0 || store.trailers["/src/nixpkgs"] != "Changelog-reviewed-by" {
		t.Fatalf("last used = %d, stored %q", s.LastUsed(), store.trailers)
	}

	// A fresh session picks the last used action up from the store.
	s2 := loadedSession(t, repo, nil, store)
	if s2.LastUsed() != 0 {
		t.Fatalf("restored last used = %d", s2.LastUsed())
	}
}

func TestMarkReviewedErrors(t *testing.T) {
	t.Parallel()

	t.Run("unknown_action", func(t *testing.T) {
		t.Parallel()
		s := loadedSession(t, newFakeRepo(&git.Commit{Author: alice, Message: glib}), nil, nil)
		if _, err := s.MarkReviewed(context.Background(), glib, "Acked-by"); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("missing_identity", func(t *testing.T) {
		t.Parallel()
		repo := newFakeRepo(&git.Commit{Author: alice, Message: glib})
		repo.identity = func() (git.Signature, error) { return git.Signature{}, git.ErrNoIdentity }
		s := loadedSession(t, repo, nil, nil)
		_, err := s.MarkReviewed(context.Background(), glib, "Tested-by")
		if kind, _ := apperr.KindOf(err); kind != apperr.KindConfig {
			t.Fatalf("expected config error, got %v", err)
		}
		if apperr.HintOf(err) != IdentityHint {
			t.Fatalf("hint = %q", apperr.HintOf(err))
		}
		if len(repo.messages()) != 1 {
			t.Fatal("no commit may be created without an identity")
		}
	})
	t.Run("write_failure", func(t *testing.T) {
		t.Parallel()
		repo := newFakeRepo(&git.Commit{Author: alice, Message: glib})
		repo.create = func(git.Signature, string) (string, error) { return "", errors.New("disk full") }
		store := &memStore{}
		s := loadedSession(t, repo, nil, store)
		_, err := s.MarkReviewed(context.Background(), glib, "Tested-by")
		if kind, _ := apperr.KindOf(err); kind != apperr.KindCommit {
			t.Fatalf("expected commit error, got %v", err)
		}
		u := s.Updates()[0]
		if len(u.Commits()) != 1 || u.Reviewed() {
			t.Fatal("in-memory update must not change when the write fails")
		}
		if s.LastUsed() != -1 || len(store.trailers) != 0 {
			t.Fatal("last used action must not change when the write fails")
		}
	})
}

func TestEditMessage(t *testing.T) {
	t.Parallel()

	var editedPath string
	tools := &fakeTools{edit: func(path string) error {
		editedPath = path
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if string(data) != glib+"\n\nbody" {
			return fmt.Errorf("unexpected editor input %q", data)
		}
		return os.WriteFile(path, []byte("  glib: 2.78.4 → 2.80.0\n\nbetter body\n\n"), 0o600)
	}}
	repo := newFakeRepo(&git.Commit{Author: alice, Message: glib + "\n\nbody\n", Changes: 1})
	s := loadedSession(t, repo, tools, nil)

	edit, err := s.EditMessage(context.Background(), glib)
	if err != nil {
		t.Fatalf("EditMessage() error: %v", err)
	}
	want := "amend! " + glib + "\n\n" + glib + "\n\nbetter body"
	if got := strings.TrimSuffix(edit.Commit.Message, "\n"); got != want {
		t.Fatalf("commit message = %q, want %q", got, want)
	}
	if _, err := os.Stat(editedPath); !os.IsNotExist(err) {
		t.Fatalf("temporary file %s was not removed", editedPath)
	}
	u := s.Updates()[0]
	if u.FinalMessage() != glib+"\n\nbetter body" || u.Editing() {
		t.Fatalf("update after edit: %q editing=%v", u.FinalMessage(), u.Editing())
	}
	wantDiff := "--- a/COMMIT_EDITMSG\n+++ b/COMMIT_EDITMSG\n@@ -1,3 +1,3 @@\n " + glib + "\n \n-body\n+better body\n"
	if edit.Diff != wantDiff {
		t.Fatalf("edit diff = %q, want %q", edit.Diff, wantDiff)
	}
}

func TestMessageDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		old    string
		edited string
		want   string
	}{
		{
			name:   "appended_trailer",
			old:    glib,
			edited: glib + "\n\nTested-by: Me <me@example.com>",
			want:   "--- a/COMMIT_EDITMSG\n+++ b/COMMIT_EDITMSG\n@@ -1 +1,3 @@\n " + glib + "\n+\n+Tested-by: Me <me@example.com>\n",
		},
		{
			name:   "identical",
			old:    glib,
			edited: glib,
			want:   "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := MessageDiff(tc.old, tc.edited)
			if err != nil {
				t.Fatalf("MessageDiff() error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("MessageDiff() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEditMessageNoop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "unchanged", content: glib + "\n"},
		{name: "empty", content: "  \n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tools := &fakeTools{edit: func(path string) error {
				return os.WriteFile(path, []byte(tc.content), 0o600)
			}}
			repo := newFakeRepo(&git.Commit{Author: alice, Message: glib, Changes: 1})
			s := loadedSession(t, repo, tools, nil)
			edit, err := s.EditMessage(context.Background(), glib)
			if err != nil || edit != nil {
				t.Fatalf("EditMessage() = %v, %v", edit, err)
			}
			if len(repo.messages()) != 1 {
				t.Fatal("no commit expected")
			}
		})
	}
}

func TestEditMessageToolError(t *testing.T) {
	t.Parallel()

	var editedPath string
	toolErr := apperr.New(apperr.KindTool, "Could not find a suitable editor.")
	tools := &fakeTools{edit: func(path string) error {
		editedPath = path
		return toolErr
	}}
	repo := newFakeRepo(&git.Commit{Author: alice, Message: glib, Changes: 1})
	s := loadedSession(t, repo, tools, nil)

	if _, err := s.EditMessage(context.Background(), glib); !errors.Is(err, toolErr) {
		t.Fatalf("EditMessage() error = %v", err)
	}
	if _, err := os.Stat(editedPath); !os.IsNotExist(err) {
		t.Fatal("temporary file must be removed on error")
	}
	if s.Updates()[0].Editing() {
		t.Fatal("editing flag must be cleared on error")
	}
}

func TestEditMessageRejectsConcurrentEdit(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	tools := &fakeTools{edit: func(string) error {
		close(started)
		<-release
		return nil
	}}
	repo := newFakeRepo(&git.Commit{Author: alice, Message: glib, Changes: 1})
	s := loadedSession(t, repo, tools, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.EditMessage(context.Background(), glib)
		done <- err
	}()
	<-started
	if !s.Updates()[0].Editing() {
		t.Fatal("expected editing flag while the editor is open")
	}
	if _, err := s.EditMessage(context.Background(), glib); err == nil {
		t.Fatal("expected second edit to be rejected")
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first edit error: %v", err)
	}
}

func TestViewCommitAndPatch(t *testing.T) {
	t.Parallel()

	tools := &fakeTools{}
	s := New(newFakeRepo(), tools, nil, Options{})
	if err := s.ViewCommit(context.Background(), "abc"); err != nil {
		t.Fatalf("ViewCommit() error: %v", err)
	}
	if !slices.Equal(tools.viewed, []string{"/src/nixpkgs@abc"}) {
		t.Fatalf("viewed = %q", tools.viewed)
	}
	if got, _ := s.Patch("abc"); got != "patch abc" {
		t.Fatalf("Patch() = %q", got)
	}
}

func TestEnsureCoauthors(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(
		&git.Commit{Author: alice, Message: glib, Changes: 1},
		&git.Commit{Author: alice, Message: "gtk4: 4.12.5 → 4.14.0", Changes: 1},
		&git.Commit{Author: bob, Message: "fixup! " + glib, Changes: 2},
		&git.Commit{Author: me, Message: "fixup! " + glib, Changes: 1},
		&git.Commit{Author: me, Message: "squash! " + glib + "\n\nTested-by: Me <me@example.com>", Changes: 0},
	)
	s := loadedSession(t, repo, nil, nil)

	created, err := s.EnsureCoauthors(context.Background())
	if err != nil {
		t.Fatalf("EnsureCoauthors() error: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d commits, want 1", len(created))
	}
	want := "squash! " + glib + "\n\nCo-authored-by: Bob <bob@example.com>\nCo-authored-by: Me <me@example.com>"
	if got := strings.TrimSuffix(created[0].Message, "\n"); got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
	if missing := update.MissingCoauthors(s.Updates()[0]); len(missing) != 0 {
		t.Fatalf("still missing %q", missing)
	}

	again, err := s.EnsureCoauthors(context.Background())
	if err != nil || len(again) != 0 {
		t.Fatalf("second EnsureCoauthors() = %v, %v", again, err)
	}
}
