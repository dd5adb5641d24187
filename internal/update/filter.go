package update

import (
	"fmt"
	"strings"
)

// Mode restricts a listing by review state.
type Mode string

const (
	ModeAll        Mode = "all"
	ModeReviewed   Mode = "reviewed"
	ModeUnreviewed Mode = "unreviewed"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAll, nil
	case ModeAll, ModeReviewed, ModeUnreviewed:
		return m, nil
	default:
		return "", fmt.Errorf("unknown filter mode %q (want all, reviewed or unreviewed)", s)
	}
}

type Filter struct {
	Query string
	Mode  Mode
}

// Match reports whether u is visible under f.
func (f Filter) Match(u *Update) bool {
	query := strings.TrimSpace(f.Query)
	if query != "" && !strings.Contains(u.Subject, query) {
		return false
	}
	switch f.Mode {
	case ModeReviewed:
		return u.Reviewed()
	case ModeUnreviewed:
		return !u.Reviewed()
	default:
		return true
	}
}

// Apply returns the updates of set that match f, in set order.
func (f Filter) Apply(set *Set) []*Update {
	var out []*Update
	for _, u := range set.Updates() {
		if f.Match(u) {
			out = append(out, u)
		}
	}
	return out
}
