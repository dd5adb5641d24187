package git

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/emirpasic/gods/trees/binaryheap"
	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// DefaultLimit bounds history walks when no boundary stops them earlier.
const DefaultLimit = 500

// Walk visits at most limit commits reachable from "from" but not from any
// hidden commit, newest first by committer time. The visited commits are
// returned oldest first in topological order.
func (s *Service) Walk(from string, hide []string, limit int) ([]*Commit, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	w := newRevWalk(s.repo.Repository)
	if err := w.push(plumbing.NewHash(from), false); err != nil {
		return nil, err
	}
	for _, h := range hide {
		if err := w.push(plumbing.NewHash(h), true); err != nil {
			return nil, err
		}
	}
	picked, err := w.run(limit)
	if err != nil {
		return nil, err
	}

	visited := make([]*Commit, 0, len(picked))
	for _, c := range picked {
		commit, err := newCommit(c)
		if err != nil {
			return nil, err
		}
		visited = append(visited, commit)
	}
	slog.Debug("Walk done",
		slog.String("from", from),
		slog.Int("hidden", len(hide)),
		slog.Int("visited", len(visited)),
		slog.Bool("limited", len(visited) == limit),
	)
	return topoOrder(visited), nil
}

type walkState struct {
	commit *object.Commit
	hidden bool
	queued bool
	done   bool
}

// revWalk walks commits newest first while hidden marks flow from hidden
// commits to all of their ancestors, like "git rev-list from ^hide".
type revWalk struct {
	repo   *gitlib.Repository
	states map[plumbing.Hash]*walkState
	queue  *binaryheap.Heap
}

func newRevWalk(repo *gitlib.Repository) *revWalk {
	return &revWalk{
		repo:   repo,
		states: make(map[plumbing.Hash]*walkState),
		queue: binaryheap.NewWith(func(a, b any) int {
			return b.(*walkState).commit.Committer.When.Compare(a.(*walkState).commit.Committer.When)
		}),
	}
}

func (w *revWalk) push(hash plumbing.Hash, hidden bool) error {
	st, ok := w.states[hash]
	if !ok {
		c, err := w.repo.CommitObject(hash)
		if err != nil {
			return fmt.Errorf("read commit %s: %w", hash, err)
		}
		st = &walkState{commit: c}
		w.states[hash] = st
	}
	if hidden && !st.hidden {
		w.hide(st)
	}
	if !st.queued && !st.done {
		st.queued = true
		w.queue.Push(st)
	}
	return nil
}

// hide marks st hidden. Parents of an already processed commit are marked
// too, since the hidden mark would otherwise never reach them.
func (w *revWalk) hide(st *walkState) {
	st.hidden = true
	if !st.done {
		return
	}
	for _, p := range st.commit.ParentHashes {
		if parent, ok := w.states[p]; ok && !parent.hidden {
			w.hide(parent)
		}
	}
}

// onlyHidden reports whether no queued commit can still be visited.
func (w *revWalk) onlyHidden() bool {
	for _, v := range w.queue.Values() {
		if !v.(*walkState).hidden {
			return false
		}
	}
	return true
}

func (w *revWalk) run(limit int) ([]*object.Commit, error) {
	var order []*walkState
	for !w.queue.Empty() && len(order) < limit && !w.onlyHidden() {
		v, _ := w.queue.Pop()
		st := v.(*walkState)
		st.queued = false
		if st.done {
			continue
		}
		st.done = true
		if !st.hidden {
			order = append(order, st)
		}
		for _, p := range st.commit.ParentHashes {
			if err := w.push(p, st.hidden); err != nil {
				return nil, err
			}
		}
	}
	// A commit visited before a hidden descendant reached it is dropped.
	out := make([]*object.Commit, 0, len(order))
	for _, st := range order {
		if !st.hidden {
			out = append(out, st.commit)
		}
	}
	return out, nil
}

// topoOrder sorts commits so that every parent precedes its children. Among
// commits that are ready at the same time the newest one is placed last, which
// mirrors a reversed topological+time walk.
func topoOrder(commits []*Commit) []*Commit {
	index := make(map[string]int, len(commits))
	for i, c := range commits {
		index[c.Hash] = i
	}
	pending := make([]int, len(commits))
	for _, c := range commits {
		for _, p := range c.ParentHashes {
			if i, ok := index[p]; ok {
				pending[i]++
			}
		}
	}
	var ready []int
	for i := range commits {
		if pending[i] == 0 {
			ready = append(ready, i)
		}
	}
	out := make([]*Commit, 0, len(commits))
	for len(ready) > 0 {
		best := 0
		for k := 1; k < len(ready); k++ {
			if newer(commits[ready[k]], commits[ready[best]]) {
				best = k
			}
		}
		i := ready[best]
		ready = slices.Delete(ready, best, best+1)
		out = append(out, commits[i])
		for _, p := range commits[i].ParentHashes {
			j, ok := index[p]
			if !ok {
				continue
			}
			pending[j]--
			if pending[j] == 0 {
				ready = append(ready, j)
			}
		}
	}
	slices.Reverse(out)
	return out
}

func newer(a, b *Commit) bool {
	return a.Committer.When.After(b.Committer.When)
}
