// Package linkify turns plain commit message text into HTML with clickable
// links.
package linkify

import (
	"fmt"
	"html"
	"strings"

	"mvdan.cc/xurls/v2"
)

var (
	urlRe      = xurls.Relaxed()
	emailGroup = urlRe.SubexpIndex("relaxedEmail")
)

// Schemes lists the URL schemes that are turned into links. Matches with any
// other scheme are left as text.
var Schemes = []string{"http", "https", "ftp", "mailto"}

// HTML escapes text and wraps every URL and e-mail address in an anchor.
// Matches without a scheme get one: "mailto:" for e-mail addresses and
// "http://" for bare host names.
func HTML(text string) string {
	var b strings.Builder
	last := 0
	for _, m := range urlRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		raw := text[start:end]
		email := emailGroup >= 0 && m[2*emailGroup] >= 0
		if !Allowed(raw, email) {
			continue
		}
		b.WriteString(html.EscapeString(text[last:start]))
		href := Href(raw, email)
		fmt.Fprintf(&b, "<a href='%s'>%s</a>", html.EscapeString(href), html.EscapeString(raw))
		last = end
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String()
}

// Href returns the link target for a matched URL.
func Href(raw string, email bool) string {
	switch {
	case email:
		return "mailto:" + raw
	case strings.Contains(raw, "://"), hasSchemeNoAuthority(raw):
		return raw
	default:
		return "http://" + raw
	}
}

// Allowed reports whether a matched URL may become a link: e-mail addresses,
// bare host names and URLs using one of Schemes.
func Allowed(raw string, email bool) bool {
	if email {
		return true
	}
	scheme, _, ok := strings.Cut(raw, "://")
	if !ok {
		if !hasSchemeNoAuthority(raw) {
			return true
		}
		scheme, _, _ = strings.Cut(raw, ":")
	}
	for _, s := range Schemes {
		if strings.EqualFold(scheme, s) {
			return true
		}
	}
	return false
}

func hasSchemeNoAuthority(raw string) bool {
	scheme, _, ok := strings.Cut(raw, ":")
	if !ok {
		return false
	}
	for _, s := range xurls.SchemesNoAuthority {
		if strings.EqualFold(scheme, s) {
			return true
		}
	}
	return false
}
