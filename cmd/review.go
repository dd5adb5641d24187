package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/autosquash-review/internal/git"
)

func newMarkReviewedCmd(a *app) *cobra.Command {
	var trailer string
	cmd := &cobra.Command{
		Use:   "mark-reviewed SUBJECT",
		Short: "Record a review trailer for an update",
		Long: `Record a review trailer for the update with SUBJECT as an empty
"squash! SUBJECT" commit. Without --trailer the first action still applicable
to the update is used, starting with the one used last.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeStore, err := a.loadSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			subject := args[0]
			if trailer == "" {
				view, err := s.View(subject)
				if err != nil {
					return err
				}
				if len(view.Actions) == 0 {
					return fmt.Errorf("every review action has already been applied to %q", subject)
				}
				trailer = view.Actions[0].Trailer
			}
			commit, err := s.MarkReviewed(cmd.Context(), subject, trailer)
			if err != nil {
				return err
			}
			return printCreated(a.stdout, commit)
		},
	}
	cmd.Flags().StringVarP(&trailer, "trailer", "t", "", "trailer to add, e.g. Tested-by")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit SUBJECT",
		Short: "Edit the final message of an update",
		Long: `Open the message the update with SUBJECT will be squashed into in an editor
and record the result as an empty "amend! SUBJECT" commit. The change is
printed as a unified diff. Nothing is recorded when the message is emptied or
left unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeStore, err := a.loadSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			edit, err := s.EditMessage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if edit == nil {
				_, err := fmt.Fprintln(a.stdout, "Message unchanged.")
				return err
			}
			if _, err := io.WriteString(a.stdout, edit.Diff); err != nil {
				return err
			}
			return printCreated(a.stdout, edit.Commit)
		},
	}
}

func newEnsureCoauthorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-coauthors",
		Short: "Credit the authors of every commit of an update as co-authors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, closeStore, err := a.loadSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			commits, err := s.EnsureCoauthors(cmd.Context())
			for _, c := range commits {
				if err := printCreated(a.stdout, c); err != nil {
					return err
				}
			}
			if err != nil {
				return err
			}
			if len(commits) == 0 {
				_, err := fmt.Fprintln(a.stdout, "All co-authors are credited.")
				return err
			}
			return nil
		},
	}
}

func printCreated(w io.Writer, c *git.Commit) error {
	hash := c.Hash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	_, err := fmt.Fprintf(w, "Created %s %s\n", hash, c.Subject())
	return err
}
