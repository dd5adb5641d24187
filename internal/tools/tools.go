// Package tools finds and runs the external editor and commit viewer.
package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/thiagokokada/autosquash-review/internal/apperr"
)

// Placeholders substituted in command templates.
const (
	PathPlaceholder   = "{path}"
	CommitPlaceholder = "{commit}"
)

// Editors are tried in order after $GIT_EDITOR, $VISUAL and $EDITOR. Each one
// must block until the file is closed.
var DefaultEditors = []string{
	"re.sonny.Commit {path}",
	"subl --wait {path}",
	"gedit --wait {path}",
	"gnome-text-editor --standalone {path}",
}

var DefaultViewers = []string{
	"sublime_merge search commit:{commit}",
}

var editorEnvVars = []string{"GIT_EDITOR", "VISUAL", "EDITOR"}

type Runner struct {
	Editors []string
	Viewers []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	getenv   func(string) string
	lookPath func(string) (string, error)
	run      func(cmd *exec.Cmd) error
}

func NewRunner(editors, viewers []string) *Runner {
	if len(editors) == 0 {
		editors = DefaultEditors
	}
	if len(viewers) == 0 {
		viewers = DefaultViewers
	}
	return &Runner{
		Editors:  editors,
		Viewers:  viewers,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		getenv:   os.Getenv,
		lookPath: exec.LookPath,
		run:      (*exec.Cmd).Run,
	}
}

// FindEditor returns the command line that edits path.
func (r *Runner) FindEditor(path string) ([]string, error) {
	for _, name := range editorEnvVars {
		fields := strings.Fields(r.getenv(name))
		if len(fields) == 0 {
			continue
		}
		if _, err := r.lookPath(fields[0]); err != nil {
			slog.Debug("editor from environment not found", slog.String("var", name), slog.String("editor", fields[0]))
			continue
		}
		return append(fields, path), nil
	}
	argv, ok := r.first(r.Editors, map[string]string{PathPlaceholder: path})
	if !ok {
		return nil, apperr.New(apperr.KindTool, "Could not find a suitable editor.").
			WithHint(fmt.Sprintf("Set $EDITOR or install one of: %s.", names(r.Editors)))
	}
	return argv, nil
}

// FindViewer returns the command line that shows commit.
func (r *Runner) FindViewer(commit string) ([]string, error) {
	argv, ok := r.first(r.Viewers, map[string]string{CommitPlaceholder: commit})
	if !ok {
		return nil, apperr.New(apperr.KindTool, "Could not find a suitable commit viewer.").
			WithHint(fmt.Sprintf("Install one of: %s, or use the builtin viewer.", names(r.Viewers)))
	}
	return argv, nil
}

// Edit opens path in an editor and waits for it to exit.
func (r *Runner) Edit(ctx context.Context, path string) error {
	argv, err := r.FindEditor(path)
	if err != nil {
		return err
	}
	return r.exec(ctx, "", argv)
}

// View shows commit in an external viewer started in dir.
func (r *Runner) View(ctx context.Context, dir, commit string) error {
	argv, err := r.FindViewer(commit)
	if err != nil {
		return err
	}
	return r.exec(ctx, dir, argv)
}

func (r *Runner) first(templates []string, vars map[string]string) ([]string, bool) {
	for _, tmpl := range templates {
		fields := strings.Fields(tmpl)
		if len(fields) == 0 {
			continue
		}
		if _, err := r.lookPath(fields[0]); err != nil {
			continue
		}
		return expand(fields, vars), true
	}
	return nil, false
}

func expand(fields []string, vars map[string]string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		for k, v := range vars {
			f = strings.ReplaceAll(f, k, v)
		}
		out = append(out, f)
	}
	return out
}

func names(templates []string) string {
	var out []string
	for _, tmpl := range templates {
		if fields := strings.Fields(tmpl); len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return strings.Join(out, ", ")
}

func (r *Runner) exec(ctx context.Context, dir string, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if r.Stderr != nil {
		cmd.Stderr = io.MultiWriter(r.Stderr, &stderr)
	}

	slog.Debug("running tool", slog.Any("argv", argv), slog.String("dir", dir))
	if err := r.run(cmd); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return apperr.Wrapf(err, apperr.KindTool, "%s failed: %s", argv[0], msg)
		}
		return apperr.Wrapf(err, apperr.KindTool, "%s failed", argv[0])
	}
	return nil
}
