package update

import (
	"fmt"
	"strings"

	"github.com/thiagokokada/autosquash-review/internal/git"
	"github.com/thiagokokada/autosquash-review/internal/message"
)

// Kind classifies a commit by the role it plays in an update.
type Kind string

const (
	KindInitial    Kind = "initial"
	KindFixup      Kind = "fixup"
	KindFixupEmpty Kind = "fixup-empty"
	KindAmend      Kind = "amend"
	KindSquash     Kind = "squash"
)

func KindOf(c *git.Commit) Kind {
	subject := c.Subject()
	switch {
	case strings.HasPrefix(subject, message.FixupPrefix):
		// A fixup! without a body only carries code.
		if strings.TrimSpace(c.Message) == strings.TrimSpace(subject) {
			return KindFixupEmpty
		}
		return KindFixup
	case strings.HasPrefix(subject, message.AmendPrefix):
		return KindAmend
	case strings.HasPrefix(subject, message.SquashPrefix):
		return KindSquash
	default:
		return KindInitial
	}
}

// Describe summarizes the size of a commit's diff against its first parent.
// Root commits have no description.
func Describe(c *git.Commit) string {
	if len(c.ParentHashes) == 0 {
		return ""
	}
	if c.Changes == 1 {
		return "1 delta in diff"
	}
	return fmt.Sprintf("%d deltas in diff", c.Changes)
}
