package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// ResolveRevision turns a revision specifier (branch, tag, hash, HEAD~3, ...)
// into a commit hash.
func (s *Service) ResolveRevision(spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", fmt.Errorf("revision not specified")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, err := s.repo.ResolveRevision(plumbing.Revision(spec))
	if err != nil {
		return "", fmt.Errorf("resolve revision %q: %w", spec, err)
	}
	return hash.String(), nil
}

func (s *Service) Remotes() ([]Remote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remotes, err := s.repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("list remotes: %w", err)
	}
	out := make([]Remote, 0, len(remotes))
	for _, remote := range remotes {
		cfg := remote.Config()
		if cfg == nil {
			continue
		}
		out = append(out, Remote{Name: cfg.Name, URLs: append([]string(nil), cfg.URLs...)})
	}
	return out, nil
}

// RemoteBranch returns the tip of <remote>/<branch>. A missing branch is
// reported with ok=false rather than an error.
func (s *Service) RemoteBranch(remote, branch string) (hash string, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.repo.Reference(plumbing.NewRemoteReferenceName(remote, branch), true)
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup %s/%s: %w", remote, branch, err)
	}
	return ref.Hash().String(), true, nil
}

// MergeBase returns the best common ancestor of two commits. Histories without
// a common ancestor yield ok=false.
func (s *Service) MergeBase(a, b string) (hash string, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	first, err := s.repo.CommitObject(plumbing.NewHash(a))
	if err != nil {
		return "", false, fmt.Errorf("read commit %s: %w", a, err)
	}
	second, err := s.repo.CommitObject(plumbing.NewHash(b))
	if err != nil {
		return "", false, fmt.Errorf("read commit %s: %w", b, err)
	}
	bases, err := first.MergeBase(second)
	if err != nil {
		return "", false, fmt.Errorf("merge base %s %s: %w", a, b, err)
	}
	if len(bases) == 0 {
		return "", false, nil
	}
	return bases[0].Hash.String(), true, nil
}
