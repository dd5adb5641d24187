package message

import (
	"slices"
	"strings"
)

// Squasher replays what `git rebase --autosquash` does to the messages of a
// commit and the fixup!, squash! and amend! commits targeting it.
//
// The zero value is ready to use.
type Squasher struct {
	lines []string

	// sawSquash is set once a squash! commit was folded in. Git then keeps
	// appending amend! bodies instead of replacing the message; that quirk is
	// reproduced so results match what the rebase actually leaves behind.
	sawSquash bool
}

// Add folds one commit message into the accumulated message and reports
// whether the accumulated lines changed.
func (s *Squasher) Add(raw string) bool {
	var subject string
	var body []string
	if lines := SplitLines(raw); len(lines) > 0 {
		subject, body = lines[0], lines[1:]
	}
	prev := slices.Clone(s.lines)

	switch {
	case strings.HasPrefix(subject, FixupPrefix):
		return false
	case strings.HasPrefix(subject, AmendPrefix) && !s.sawSquash:
		s.lines = nil
		if len(body) > 0 && body[0] == "" {
			body = body[1:]
		}
	case strings.HasPrefix(subject, AmendPrefix), strings.HasPrefix(subject, SquashPrefix):
		s.sawSquash = true
	default:
		s.lines = append(s.lines, subject)
	}
	s.lines = append(s.lines, body...)

	return !slices.Equal(prev, s.lines)
}

// Lines returns a copy of the accumulated message lines.
func (s *Squasher) Lines() []string {
	return slices.Clone(s.lines)
}

// Message returns the accumulated message.
func (s *Squasher) Message() string {
	return strings.Join(s.lines, "\n")
}
