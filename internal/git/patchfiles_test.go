package git

import (
	"slices"
	"strings"
	"testing"
)

func TestPatchFiles(t *testing.T) {
	t.Parallel()

	patch := strings.Join([]string{
		"commit 0123",
		"diff --git a/pkgs/glib/default.nix b/pkgs/glib/default.nix",
		"+  version = \"2.80.0\";",
		`diff --git "a/space name.txt" "b/space name.txt"`,
		`diff --git "a/quo\"te.txt" "b/quo\"te.txt"`,
		"diff --git a/onlyone",
		"not a diff line",
	}, "\n")

	got := PatchFiles(patch)
	want := []string{"pkgs/glib/default.nix", "space name.txt", `quo"te.txt`}
	if !slices.Equal(got, want) {
		t.Fatalf("PatchFiles() = %q, want %q", got, want)
	}
	if got := PatchFiles("No file level changes.\n"); len(got) != 0 {
		t.Fatalf("PatchFiles(no changes) = %q", got)
	}
}
