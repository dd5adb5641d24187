package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/thiagokokada/autosquash-review/internal/git"
	"github.com/thiagokokada/autosquash-review/internal/render"
)

type viewOptions struct {
	builtin  bool
	nameOnly bool
	color    string
}

func newViewCmd(a *app) *cobra.Command {
	var o viewOptions
	cmd := &cobra.Command{
		Use:   "view COMMIT",
		Short: "Show a commit in the configured viewer",
		Long: `Show COMMIT in the first available viewer from tools.viewers, or print
its patch with --builtin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeStore, err := a.openSession()
			if err != nil {
				return err
			}
			defer closeStore()

			if !o.builtin && !o.nameOnly {
				return s.ViewCommit(cmd.Context(), args[0])
			}
			patch, err := s.Patch(args[0])
			if err != nil {
				return err
			}
			if o.nameOnly {
				for _, path := range git.PatchFiles(patch) {
					if _, err := fmt.Fprintln(a.stdout, path); err != nil {
						return err
					}
				}
				return nil
			}
			color, err := o.useColor()
			if err != nil {
				return err
			}
			return render.Patch(a.stdout, patch, render.ThemePreferenceFromString(a.cfg.Theme), color)
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&o.builtin, "builtin", false, "print the patch instead of running a viewer")
	flags.BoolVar(&o.nameOnly, "name-only", false, "only print the paths changed by the commit")
	flags.StringVar(&o.color, "color", "auto", "color the builtin patch: auto, always or never")
	return cmd
}

func (o viewOptions) useColor() (bool, error) {
	switch o.color {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		fd := os.Stdout.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd), nil
	default:
		return false, fmt.Errorf("unknown color mode %q (want auto, always or never)", o.color)
	}
}
