// Package update groups commits into logical package updates and derives the
// review state shown for each of them.
package update

import (
	"slices"
	"strings"

	"github.com/thiagokokada/autosquash-review/internal/git"
	"github.com/thiagokokada/autosquash-review/internal/linkify"
	"github.com/thiagokokada/autosquash-review/internal/message"
)

// Update is one reviewable unit: a commit plus every fixup!, squash! and
// amend! commit targeting it.
type Update struct {
	Subject string

	commits  []*git.Commit
	squasher message.Squasher
	final    string
	editing  bool
}

func New(subject string) *Update {
	return &Update{Subject: subject}
}

// AddCommit appends c and folds its message into the final message. It
// reports whether the final message changed.
func (u *Update) AddCommit(c *git.Commit) bool {
	u.commits = append(u.commits, c)
	if !u.squasher.Add(c.Message) {
		return false
	}
	u.final = u.squasher.Message()
	return true
}

func (u *Update) Commits() []*git.Commit {
	return slices.Clone(u.commits)
}

// FirstCommit returns the commit that introduced the update, or nil for an
// update without commits.
func (u *Update) FirstCommit() *git.Commit {
	if len(u.commits) == 0 {
		return nil
	}
	return u.commits[0]
}

// FinalMessage is the message an autosquash rebase would leave behind.
func (u *Update) FinalMessage() string {
	return u.final
}

func (u *Update) Lines() []string {
	return u.squasher.Lines()
}

func (u *Update) ChangelogLink() (string, bool) {
	return message.FindChangelogLink(u.squasher.Lines())
}

// ChangelogMarkup renders the changelog link as an HTML anchor, or a
// placeholder when there is none.
func (u *Update) ChangelogMarkup() string {
	return message.ChangelogMarkup(u.squasher.Lines())
}

func (u *Update) Reviewed() bool {
	return Reviewed(u.final)
}

// RichMessage is the final message as linkified HTML.
func (u *Update) RichMessage() string {
	return linkify.HTML(u.final)
}

// EditableMessage is the final message as handed to an editor.
func (u *Update) EditableMessage() string {
	return strings.TrimSpace(u.final)
}

func (u *Update) Editing() bool {
	return u.editing
}

func (u *Update) SetEditing(editing bool) {
	u.editing = editing
}
