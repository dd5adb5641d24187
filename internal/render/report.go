// Package render writes update listings and commit patches for the terminal
// and for other programs.
package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thiagokokada/autosquash-review/internal/update"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json, yaml or html)", s)
	}
}

// Report writes views to w in format.
func Report(w io.Writer, format Format, views []update.View) error {
	if views == nil {
		views = []update.View{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	case FormatHTML:
		return htmlReport.Execute(w, views)
	default:
		return textReport(w, views)
	}
}

var kindIcons = map[update.Kind]string{
	update.KindInitial:    "●",
	update.KindFixup:      "F",
	update.KindFixupEmpty: "f",
	update.KindAmend:      "A",
	update.KindSquash:     "S",
}

func textReport(w io.Writer, views []update.View) error {
	var b strings.Builder
	if len(views) == 0 {
		b.WriteString("No updates found.\n")
	}
	for i, v := range views {
		if i > 0 {
			b.WriteString("\n")
		}
		status := "unreviewed"
		if v.Reviewed {
			status = "reviewed"
		}
		fmt.Fprintf(&b, "%s [%s]\n", v.Subject, status)
		if v.ChangelogLink != "" {
			fmt.Fprintf(&b, "  changelog: %s\n", v.ChangelogLink)
		} else {
			fmt.Fprintf(&b, "  changelog: %s\n", v.ChangelogMarkup)
		}
		for _, c := range v.Commits {
			line := fmt.Sprintf("  %s %s %s", kindIcons[c.Kind], shortHash(c.Hash), c.Subject)
			if c.Description != "" {
				line += " (" + c.Description + ")"
			}
			b.WriteString(line + "\n")
		}
		if len(v.MissingAuthors) > 0 {
			fmt.Fprintf(&b, "  missing co-authors: %s\n", strings.Join(v.MissingAuthors, ", "))
		}
		if len(v.Actions) > 0 {
			labels := make([]string, 0, len(v.Actions))
			for _, a := range v.Actions {
				labels = append(labels, fmt.Sprintf("%s (%s)", a.Label, a.Trailer))
			}
			fmt.Fprintf(&b, "  actions: %s\n", strings.Join(labels, ", "))
		}
		b.WriteString("  message:\n")
		for _, line := range strings.Split(v.FinalMessage, "\n") {
			b.WriteString(strings.TrimRight("    "+line, " ") + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"trusted": func(s string) template.HTML {
		// Produced by linkify and message.ChangelogMarkup, which escape
		// everything outside the generated anchors.
		return template.HTML(s)
	},
	"short": shortHash,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Package updates</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.update { border-bottom: 1px solid #ccc; padding: 1em 0; }
.reviewed h2::after { content: " ✓"; color: green; }
pre { white-space: pre-wrap; }
code { color: #666; }
</style>
</head>
<body>
{{- range .}}
<section class="update{{if .Reviewed}} reviewed{{end}}">
<h2>{{.Subject}}</h2>
<p>Changelog: {{trusted .ChangelogMarkup}}</p>
<ul>
{{- range .Commits}}
<li class="{{.Kind}}"><code>{{short .Hash}}</code> {{.Subject}}{{if .Description}} <small>({{.Description}})</small>{{end}}</li>
{{- end}}
</ul>
{{- if .MissingAuthors}}
<p>Missing co-authors: {{range $i, $a := .MissingAuthors}}{{if $i}}, {{end}}{{$a}}{{end}}</p>
{{- end}}
<pre>{{trusted .RichMessage}}</pre>
</section>
{{- else}}
<p>No updates found.</p>
{{- end}}
</body>
</html>
`))
