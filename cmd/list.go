package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/autosquash-review/internal/render"
	"github.com/thiagokokada/autosquash-review/internal/session"
	"github.com/thiagokokada/autosquash-review/internal/update"
	"github.com/thiagokokada/autosquash-review/internal/watch"
)

type listOptions struct {
	format string
	mode   string
	query  string
}

func addListFlags(cmd *cobra.Command, o *listOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&o.format, "format", "f", string(render.FormatText), "output format: text, json, yaml or html")
	flags.StringVar(&o.mode, "filter", string(update.ModeAll), "show all, reviewed or unreviewed updates")
	flags.StringVarP(&o.query, "query", "q", "", "only show updates whose subject contains this text")
}

func (o listOptions) parse() (render.Format, update.Filter, error) {
	format, err := render.ParseFormat(o.format)
	if err != nil {
		return "", update.Filter{}, err
	}
	mode, err := update.ParseMode(o.mode)
	if err != nil {
		return "", update.Filter{}, err
	}
	return format, update.Filter{Query: o.query, Mode: mode}, nil
}

func newListCmd(a *app) *cobra.Command {
	var o listOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List updates with the message they will be squashed into",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.list(cmd.Context(), o)
		},
	}
	addListFlags(cmd, &o)
	return cmd
}

func (a *app) list(ctx context.Context, o listOptions) error {
	format, filter, err := o.parse()
	if err != nil {
		return err
	}
	s, closeStore, err := a.loadSession(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	return render.Report(a.stdout, format, s.Views(filter))
}

func newWatchCmd(a *app) *cobra.Command {
	var o listOptions
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "List updates and list them again whenever the repository changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.watch(cmd.Context(), o)
		},
	}
	addListFlags(cmd, &o)
	return cmd
}

func (a *app) watch(ctx context.Context, o listOptions) error {
	format, filter, err := o.parse()
	if err != nil {
		return err
	}
	s, closeStore, err := a.openSession()
	if err != nil {
		return err
	}
	defer closeStore()
	if err := a.reload(ctx, s, format, filter); err != nil {
		return err
	}

	w, err := watch.New(s.RepoPath(), watch.DefaultDelay)
	if err != nil {
		return err
	}
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.Changes():
			if err := a.reload(ctx, s, format, filter); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				slog.Error("Reload failed", slog.Any("err", err))
			}
		}
	}
}

// reload loads the updates again and prints them. Reloads run one after the
// other on the watch loop, so session.ErrLoadInProgress cannot happen here.
func (a *app) reload(ctx context.Context, s *session.Session, format render.Format, filter update.Filter) error {
	if err := s.Load(ctx); err != nil {
		return err
	}
	slog.Debug("updates reloaded", slog.Int("updates", len(s.Updates())))
	return render.Report(a.stdout, format, s.Views(filter))
}
