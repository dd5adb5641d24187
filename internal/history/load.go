package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thiagokokada/autosquash-review/internal/update"
)

// Load walks the current branch down to its boundaries and groups the visited
// commits into updates. Any error discards the partial result.
func Load(repo Repository, opts Options) (*update.Set, error) {
	opts = opts.withDefaults()
	start := time.Now()

	tip, name, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	hide, err := Boundaries(repo, tip, opts)
	if err != nil {
		return nil, err
	}
	commits, err := repo.Walk(tip, hide, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("walk history: %w", err)
	}
	set := update.Group(commits)

	slog.Debug("history loaded",
		slog.String("head", name),
		slog.Int("boundaries", len(hide)),
		slog.Int("commits", len(commits)),
		slog.Int("updates", set.Len()),
		slog.Duration("duration", time.Since(start)),
	)
	return set, nil
}

// Result is the outcome of a background load.
type Result struct {
	Set *update.Set
	Err error
}

// LoadAsync runs Load in its own goroutine. The returned channel delivers
// exactly one Result and is then closed. When ctx is done first, the result
// carries ctx.Err() and the load's outcome is dropped.
func LoadAsync(ctx context.Context, repo Repository, opts Options) <-chan Result {
	out := make(chan Result, 1)
	done := make(chan Result, 1)
	go func() {
		set, err := Load(repo, opts)
		done <- Result{Set: set, Err: err}
	}()
	go func() {
		defer close(out)
		select {
		case res := <-done:
			out <- res
		case <-ctx.Done():
			out <- Result{Err: ctx.Err()}
		}
	}()
	return out
}
