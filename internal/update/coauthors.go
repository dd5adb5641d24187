package update

import (
	"slices"

	"github.com/thiagokokada/autosquash-review/internal/git"
	"github.com/thiagokokada/autosquash-review/internal/message"
)

// Finding lists the authors of an update whose contribution is not yet
// acknowledged with a Co-authored-by trailer.
type Finding struct {
	Update  *Update
	Commit  *git.Commit
	Missing []string
}

// MissingCoauthors returns the authors of non-empty commits in u that are
// neither the author of its first commit nor named in a Co-authored-by
// trailer of the final message. The result is sorted.
func MissingCoauthors(u *Update) []string {
	first := u.FirstCommit()
	if first == nil {
		return nil
	}
	acknowledged := map[string]bool{first.Author.String(): true}
	for _, a := range message.CoAuthors(u.FinalMessage()) {
		acknowledged[a] = true
	}

	seen := make(map[string]bool)
	var missing []string
	for _, c := range u.commits {
		if c.IsEmpty() {
			continue
		}
		author := c.Author.String()
		if acknowledged[author] || seen[author] {
			continue
		}
		seen[author] = true
		missing = append(missing, author)
	}
	slices.Sort(missing)
	return missing
}

// FindMissingCoauthors collects a finding for every update in set with
// unacknowledged authors.
func FindMissingCoauthors(set *Set) []Finding {
	var findings []Finding
	for _, u := range set.Updates() {
		if missing := MissingCoauthors(u); len(missing) > 0 {
			findings = append(findings, Finding{Update: u, Commit: u.FirstCommit(), Missing: missing})
		}
	}
	return findings
}
