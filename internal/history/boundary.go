// Package history selects the commits of the current branch worth reviewing
// and groups them into updates.
package history

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/thiagokokada/autosquash-review/internal/apperr"
	"github.com/thiagokokada/autosquash-review/internal/git"
)

// Repository is the part of the repository provider the loader needs.
type Repository interface {
	Head() (hash string, name string, err error)
	ResolveRevision(spec string) (string, error)
	Remotes() ([]git.Remote, error)
	RemoteBranch(remote, branch string) (hash string, ok bool, err error)
	MergeBase(a, b string) (hash string, ok bool, err error)
	Walk(from string, hide []string, limit int) ([]*git.Commit, error)
}

var (
	DefaultRemoteURLs = []string{
		"git@github.com:NixOS/nixpkgs.git",
		"https://github.com/NixOS/nixpkgs.git",
		"https://github.com/NixOS/nixpkgs",
	}
	DefaultBranches = []string{"staging", "master"}
)

type Options struct {
	// Base, when set, is the only boundary of the walk.
	Base string
	// RemoteURLs identify the upstream remote when Base is empty.
	RemoteURLs []string
	// Branches of the upstream remote whose merge bases bound the walk.
	Branches []string
	// Limit caps the number of visited commits; zero means git.DefaultLimit.
	Limit int
}

func (o Options) withDefaults() Options {
	if len(o.RemoteURLs) == 0 {
		o.RemoteURLs = DefaultRemoteURLs
	}
	if len(o.Branches) == 0 {
		o.Branches = DefaultBranches
	}
	if o.Limit <= 0 {
		o.Limit = git.DefaultLimit
	}
	return o
}

// Boundaries returns the commits the walk from tip must not enter.
func Boundaries(repo Repository, tip string, opts Options) ([]string, error) {
	opts = opts.withDefaults()
	if base := strings.TrimSpace(opts.Base); base != "" {
		hash, err := repo.ResolveRevision(base)
		if err != nil {
			return nil, apperr.Wrapf(err, apperr.KindBoundary, "Could not resolve base revision “%s”.", base)
		}
		return []string{hash}, nil
	}

	remote, err := findRemote(repo, opts.RemoteURLs)
	if err != nil {
		return nil, err
	}
	var hide []string
	for _, branch := range opts.Branches {
		hash, ok := mergeBase(repo, tip, remote, branch)
		if ok && !slices.Contains(hide, hash) {
			hide = append(hide, hash)
		}
	}
	return hide, nil
}

func findRemote(repo Repository, urls []string) (string, error) {
	remotes, err := repo.Remotes()
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindBoundary, "Could not list Git remotes.")
	}
	for _, remote := range remotes {
		for _, url := range remote.URLs {
			if slices.Contains(urls, url) {
				return remote.Name, nil
			}
		}
	}
	return "", apperr.New(apperr.KindBoundary, fmt.Sprintf("Could not find a Git remote with URL “%s”.", urls[0]))
}

// mergeBase never fails: a branch that cannot be used simply adds no
// boundary.
func mergeBase(repo Repository, tip, remote, branch string) (string, bool) {
	logger := slog.With(slog.String("remote", remote), slog.String("branch", branch))
	upstream, ok, err := repo.RemoteBranch(remote, branch)
	if err != nil || !ok {
		logger.Debug("upstream branch unavailable", slog.Any("err", err))
		return "", false
	}
	hash, ok, err := repo.MergeBase(tip, upstream)
	if err != nil || !ok {
		logger.Debug("no merge base", slog.String("upstream", upstream), slog.Any("err", err))
		return "", false
	}
	logger.Debug("merge base found", slog.String("hash", hash))
	return hash, true
}
