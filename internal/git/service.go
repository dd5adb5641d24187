package git

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNoCommits is returned when HEAD does not point to any commit yet.
var ErrNoCommits = errors.New("repository has no commits")

type Service struct {
	// mu serializes every go-git access. Commit creation reads the branch tip and
	// writes a new one, so a second writer must never observe a stale tip.
	mu sync.Mutex

	repo repoState
}

type repoState struct {
	*gitlib.Repository
	path string
}

func Open(repoPath string) (*Service, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	slog.Debug("repository opened", slog.String("path", root))
	return &Service{repo: repoState{path: root, Repository: repo}}, nil
}

func (s *Service) RepoPath() string {
	return s.repo.path
}

// Head returns the commit hash HEAD points to and a short name for it.
func (s *Service) Head() (hash string, name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return "", "", ErrNoCommits
		}
		return "", "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash().String(), refName(ref), nil
}

// Commit looks up a single commit by its full hash.
func (s *Service) Commit(hash string) (*Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(plumbing.NewHash(hash))
}

func (s *Service) commitLocked(hash plumbing.Hash) (*Commit, error) {
	c, err := s.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	return newCommit(c)
}

func newCommit(c *object.Commit) (*Commit, error) {
	changes, err := countChanges(c)
	if err != nil {
		return nil, fmt.Errorf("diff commit %s: %w", c.Hash, err)
	}
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return &Commit{
		Hash:         c.Hash.String(),
		ParentHashes: parents,
		Author:       newSignature(c.Author),
		Committer:    newSignature(c.Committer),
		Message:      c.Message,
		Changes:      changes,
	}, nil
}

func newSignature(sig object.Signature) Signature {
	return Signature{Name: sig.Name, Email: sig.Email, When: sig.When}
}

// countChanges diffs the commit tree against its first parent. Root commits
// are diffed against the empty tree, so an empty root tree yields zero.
func countChanges(c *object.Commit) (int, error) {
	tree, err := c.Tree()
	if err != nil {
		return 0, err
	}
	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return 0, err
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return 0, err
		}
	}
	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return 0, err
	}
	return len(changes), nil
}

func FormatCommitHeader(c *Commit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\n", c.Hash)
	appendSignatureLine(&b, "Author", c.Author)
	committer := c.Committer
	if committer.Name == "" && committer.Email == "" && committer.When.IsZero() {
		committer = c.Author
	}
	appendSignatureLine(&b, "Committer", committer)
	b.WriteString("\n")
	message := strings.TrimRight(c.Message, "\n")
	if message == "" {
		b.WriteString("    (no commit message)\n")
		return b.String()
	}
	for line := range strings.SplitSeq(message, "\n") {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "    %s\n", line)
	}
	return b.String()
}

func appendSignatureLine(b *strings.Builder, label string, sig Signature) {
	fmt.Fprintf(b, "%s: %s", label, sig)
	if !sig.When.IsZero() {
		fmt.Fprintf(b, "  %s", sig.When.Format("2006-01-02 15:04:05 -0700"))
	}
	b.WriteByte('\n')
}

func refName(ref *plumbing.Reference) string {
	name := ref.Name().Short()
	if name == "" {
		name = ref.Name().String()
	}
	return name
}
