package update

import (
	"slices"

	"github.com/thiagokokada/autosquash-review/internal/message"
)

// Action is a trailer that can be added to an update to record a review step.
type Action struct {
	Trailer string `json:"trailer" yaml:"trailer"`
	Icon    string `json:"icon" yaml:"icon"`
	Label   string `json:"label" yaml:"label"`
}

// DefaultActions is the catalog of review actions, in presentation order.
var DefaultActions = []Action{
	{Trailer: message.ChangelogReviewedBy, Icon: "emblem-ok-symbolic", Label: "Mark changelog as reviewed"},
	{Trailer: message.TestedBy, Icon: "emblem-ok-symbolic", Label: "Mark as tested"},
}

// IndexOf returns the catalog position of the action for trailer, or -1.
func IndexOf(catalog []Action, trailer string) int {
	return slices.IndexFunc(catalog, func(a Action) bool {
		return a.Trailer == trailer
	})
}

// Reviewed reports whether finalMessage carries a Changelog-reviewed-by
// trailer.
func Reviewed(finalMessage string) bool {
	return message.HasTrailer(message.ChangelogReviewedBy, finalMessage, "")
}

// ApplicableActions returns the actions still worth offering for an update
// with the given final message. The last used action, when valid, comes first
// and actions whose trailer is already present are left out.
func ApplicableActions(catalog []Action, lastUsed int, finalMessage string) []Action {
	ordered := make([]Action, 0, len(catalog))
	if lastUsed >= 0 && lastUsed < len(catalog) {
		ordered = append(ordered, catalog[lastUsed])
	}
	for i, a := range catalog {
		if i != lastUsed {
			ordered = append(ordered, a)
		}
	}
	return slices.DeleteFunc(ordered, func(a Action) bool {
		return message.HasTrailer(a.Trailer, finalMessage, "")
	})
}
