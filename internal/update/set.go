package update

import (
	"slices"

	"github.com/thiagokokada/autosquash-review/internal/git"
	"github.com/thiagokokada/autosquash-review/internal/message"
)

// Set keeps updates in the order their first commit was discovered.
type Set struct {
	updates []*Update
	index   map[string]int
}

func NewSet() *Set {
	return &Set{index: make(map[string]int)}
}

// Group builds a set from commits ordered oldest first.
func Group(commits []*git.Commit) *Set {
	set := NewSet()
	for _, c := range commits {
		set.Add(c)
	}
	return set
}

// Add routes c to the update named by its normalized subject, creating the
// update on first sight. It returns the update and whether its final message
// changed.
func (s *Set) Add(c *git.Commit) (*Update, bool) {
	subject := message.NormalizeSubject(c.Subject())
	u, ok := s.Lookup(subject)
	if !ok {
		u = New(subject)
		s.index[subject] = len(s.updates)
		s.updates = append(s.updates, u)
	}
	return u, u.AddCommit(c)
}

func (s *Set) Lookup(subject string) (*Update, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[subject]
	if !ok {
		return nil, false
	}
	return s.updates[i], true
}

func (s *Set) Updates() []*Update {
	if s == nil {
		return nil
	}
	return slices.Clone(s.updates)
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.updates)
}
