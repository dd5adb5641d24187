package update

import (
	"slices"
	"testing"

	"github.com/thiagokokada/autosquash-review/internal/git"
)

var carol = git.Signature{Name: "Carol", Email: "carol@example.com"}

func TestMissingCoauthors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		commits []*git.Commit
		want    []string
	}{
		{
			name: "same_author",
			commits: []*git.Commit{
				newCommit(1, alice, "A", 1),
				newCommit(2, alice, "fixup! A", 1),
			},
			want: nil,
		},
		{
			name: "other_author",
			commits: []*git.Commit{
				newCommit(1, alice, "A", 1),
				newCommit(2, bob, "fixup! A", 1),
			},
			want: []string{"Bob <bob@example.com>"},
		},
		{
			name: "acknowledged",
			commits: []*git.Commit{
				newCommit(1, alice, "A", 1),
				newCommit(2, bob, "fixup! A", 1),
				newCommit(3, alice, "squash! A\n\nCo-authored-by: Bob <bob@example.com>", 0),
			},
			want: nil,
		},
		{
			name: "empty_commit_is_no_claim",
			commits: []*git.Commit{
				newCommit(1, alice, "A", 1),
				newCommit(2, bob, "squash! A\n\nTested-by: Bob <bob@example.com>", 0),
			},
			want: nil,
		},
		{
			name: "empty_first_commit_still_acknowledged",
			commits: []*git.Commit{
				newCommit(1, alice, "A", 0),
				newCommit(2, alice, "fixup! A", 1),
			},
			want: nil,
		},
		{
			name: "sorted_and_deduplicated",
			commits: []*git.Commit{
				newCommit(1, alice, "A", 1),
				newCommit(2, carol, "fixup! A", 1),
				newCommit(3, bob, "fixup! A", 1),
				newCommit(4, carol, "fixup! A", 2),
			},
			want: []string{"Bob <bob@example.com>", "Carol <carol@example.com>"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := MissingCoauthors(Group(tc.commits).Updates()[0])
			if !slices.Equal(got, tc.want) {
				t.Fatalf("MissingCoauthors() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFindMissingCoauthors(t *testing.T) {
	t.Parallel()

	set := Group([]*git.Commit{
		newCommit(1, alice, "A", 1),
		newCommit(2, alice, "B", 1),
		newCommit(3, bob, "fixup! B", 1),
	})
	findings := FindMissingCoauthors(set)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0]
	if f.Update.Subject != "B" || f.Commit.Hash != set.Updates()[1].FirstCommit().Hash {
		t.Fatalf("unexpected finding: %+v", f)
	}
	if !slices.Equal(f.Missing, []string{"Bob <bob@example.com>"}) {
		t.Fatalf("Missing = %q", f.Missing)
	}
}
