// Package message implements the text rules of autosquash commit messages:
// marker prefixes, trailers, changelog links and the squash simulation.
package message

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

const (
	FixupPrefix  = "fixup! "
	SquashPrefix = "squash! "
	AmendPrefix  = "amend! "
)

// Well-known trailer keys.
const (
	ChangelogReviewedBy = "Changelog-reviewed-by"
	TestedBy            = "Tested-by"
	CoAuthoredBy        = "Co-authored-by"
)

// NoChangelog is displayed when no changelog link could be found.
const NoChangelog = "No changelog detected."

var (
	markerPrefixRe = regexp.MustCompile(`^(fixup! |squash! |amend! )+`)
	coAuthorRe     = regexp.MustCompile(`(?im)^Co-authored-by: *(.+) *$`)
)

// NormalizeSubject strips any stack of fixup!/squash!/amend! markers so the
// subject names the commit they all target.
func NormalizeSubject(subject string) string {
	return markerPrefixRe.ReplaceAllString(subject, "")
}

// HasTrailer reports whether some line of text starts with "<trailer>: <value>",
// compared case-insensitively. An empty value matches any trailer value.
func HasTrailer(trailer, text, value string) bool {
	re, err := regexp.Compile(fmt.Sprintf(`(?im)^%s: %s`, regexp.QuoteMeta(trailer), regexp.QuoteMeta(value)))
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// CoAuthors returns the value of every Co-authored-by trailer in file order.
func CoAuthors(message string) []string {
	var authors []string
	for _, m := range coAuthorRe.FindAllStringSubmatch(message, -1) {
		authors = append(authors, m[1])
	}
	return authors
}

// FindChangelogLink returns the first line that starts with an https URL,
// which in update commits is almost always the upstream changelog.
func FindChangelogLink(lines []string) (string, bool) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "https://") {
			return line, true
		}
	}
	return "", false
}

// GitHubChangelogURL points GNOME GitLab links at the GitHub mirror, which
// renders compare views without requiring a login.
func GitHubChangelogURL(url string) string {
	url = strings.ReplaceAll(url, "https://gitlab.gnome.org/GNOME/", "https://github.com/GNOME/")
	return strings.ReplaceAll(url, "/-/", "/")
}

// ChangelogMarkup renders the changelog link of a message as an anchor, or the
// NoChangelog placeholder.
func ChangelogMarkup(lines []string) string {
	url, ok := FindChangelogLink(lines)
	if !ok {
		return NoChangelog
	}
	url = html.EscapeString(GitHubChangelogURL(url))
	return fmt.Sprintf("<a href='%s'>%s</a>", url, url)
}

// SplitLines splits a message into lines. A trailing newline does not start
// an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
