package message

import (
	"bytes"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"
)

// autosquashWithGit commits messages into a scratch repository, runs an
// autosquash rebase with editors that keep everything as is, and returns the
// resulting messages oldest first.
func autosquashWithGit(t *testing.T, messages []string) []string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not available")
	}
	dir := t.TempDir()
	runGit(t, dir, "init", "--quiet")
	for _, m := range messages {
		runGit(t, dir, "commit", "--quiet", "--allow-empty", "--no-gpg-sign", "-m", m)
	}
	runGit(t, dir, "rebase", "--quiet", "--interactive", "--autosquash", "--root")

	var out []string
	for _, hash := range strings.Fields(runGit(t, dir, "log", "--format=%H", "--reverse")) {
		// Git always leaves the message with a trailing blank line.
		out = append(out, strings.TrimRight(runGit(t, dir, "log", "--format=%B", "-n", "1", hash), "\n"))
	}
	return out
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	base := []string{
		"-c", "user.name=Tester",
		"-c", "user.email=test@example.com",
		"-c", "init.defaultBranch=main",
	}
	cmd := exec.Command("git", append(base, args...)...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_CONFIG_GLOBAL="+os.DevNull,
		"GIT_EDITOR=cat",
		"GIT_SEQUENCE_EDITOR=cat",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("git %s: %v: %s", strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String()
}

func checkAutosquashing(t *testing.T, messages []string) {
	t.Helper()
	want := autosquashWithGit(t, messages)
	got := []string{squash(messages...)}
	if !slices.Equal(got, want) {
		t.Fatalf("simulated %q, git produced %q", got, want)
	}
}

func TestAutosquashingMatchesGit(t *testing.T) {
	tests := []struct {
		name     string
		messages []string
	}{
		{name: "fixup", messages: []string{"Hello", "fixup! Hello"}},
		{name: "fixup_with_body", messages: []string{"Hello", "fixup! Hello\n\nfoo"}},
		{name: "squash", messages: []string{"Hello", "squash! Hello\n\nfoo"}},
		{name: "double_squash", messages: []string{"Hello", "squash! Hello\n\nfoo", "squash! Hello\n\nfoo"}},
		{name: "amend", messages: []string{"Hello", "amend! Hello\n\nbar"}},
		{name: "amend_then_squash", messages: []string{"Hello", "amend! Hello\n\nbar", "squash! Hello\n\nfoo"}},
		// Git appends the amend! body here instead of replacing the message.
		{name: "squash_then_amend", messages: []string{"Hello", "squash! Hello\n\nfoo", "amend! Hello\n\nbar"}},
		{name: "review_trailer", messages: []string{"glib: 2.78.4 → 2.80.0\n\nhttps://example.com/changes", "squash! glib: 2.78.4 → 2.80.0\n\nChangelog-reviewed-by: Me <me@example.com>"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			checkAutosquashing(t, tc.messages)
		})
	}
}
