package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/autosquash-review/internal/buildinfo"
	"github.com/thiagokokada/autosquash-review/internal/config"
	"github.com/thiagokokada/autosquash-review/internal/git"
	"github.com/thiagokokada/autosquash-review/internal/session"
	"github.com/thiagokokada/autosquash-review/internal/state"
	"github.com/thiagokokada/autosquash-review/internal/tools"
)

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

type globalOptions struct {
	repoPath   string
	configPath string
	base       string
	verbose    bool
}

// app carries what every subcommand shares once flags have been parsed.
type app struct {
	opts   globalOptions
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(&app{stdout: stdout, stderr: stderr})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	var list listOptions
	root := &cobra.Command{
		Use:   "autosquash-review",
		Short: "Review package update commits before they are autosquashed",
		Long: `autosquash-review groups the commits on top of the upstream branches by the
update they belong to, shows the message "git rebase --autosquash" would
produce for each of them and records review trailers as squash! commits.`,
		Version:       buildinfo.VersionWithTags(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.list(cmd.Context(), list)
		},
	}
	root.SetVersionTemplate("autosquash-review {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVarP(&a.opts.repoPath, "repo", "C", ".", "path to the repository")
	flags.StringVar(&a.opts.configPath, "config", "", "configuration file (default $XDG_CONFIG_HOME/autosquash-review/config.toml)")
	flags.StringVar(&a.opts.base, "base", "", "revision to start from instead of the merge bases with the upstream branches")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "enable verbose logging")
	addListFlags(root, &list)

	root.AddCommand(
		newListCmd(a),
		newWatchCmd(a),
		newMarkReviewedCmd(a),
		newEditCmd(a),
		newViewCmd(a),
		newEnsureCoauthorsCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads the configuration and installs the logger.
func (a *app) setup() error {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	a.setupLogger(level)
	return nil
}

func (a *app) setupLogger(level slog.Level) {
	if a.opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level})))
}

func (a *app) statePath() (string, error) {
	if a.cfg.StatePath != "" {
		return a.cfg.StatePath, nil
	}
	return state.DefaultPath()
}

// openSession opens the repository and the state store. The returned close
// function releases the store.
func (a *app) openSession() (*session.Session, func(), error) {
	repo, err := git.Open(a.opts.repoPath)
	if err != nil {
		return nil, nil, err
	}
	var store session.StateStore
	closeStore := func() {}
	if path, err := a.statePath(); err != nil {
		slog.Warn("State store disabled", slog.Any("err", err))
	} else if st, err := state.Open(path); err != nil {
		slog.Warn("State store disabled", slog.String("path", path), slog.Any("err", err))
	} else {
		slog.Debug("state store opened", slog.String("path", st.Path()))
		store = st
		closeStore = func() {
			if err := st.Close(); err != nil {
				slog.Warn("Failed to close state store", slog.Any("err", err))
			}
		}
	}
	runner := tools.NewRunner(a.cfg.Tools.Editors, a.cfg.Tools.Viewers)
	runner.Stdin = os.Stdin
	runner.Stdout = a.stdout
	runner.Stderr = a.stderr
	s := session.New(repo, runner, store, session.Options{
		History: a.cfg.HistoryOptions(a.opts.base),
	})
	return s, closeStore, nil
}

// loadSession opens a session and loads its updates.
func (a *app) loadSession(ctx context.Context) (*session.Session, func(), error) {
	s, closeStore, err := a.openSession()
	if err != nil {
		return nil, nil, err
	}
	if err := s.Load(ctx); err != nil {
		closeStore()
		if errors.Is(err, git.ErrNoCommits) {
			return nil, nil, fmt.Errorf("%s: %w", a.opts.repoPath, err)
		}
		return nil, nil, err
	}
	return s, closeStore, nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(a.stdout, "autosquash-review %s\n", buildinfo.VersionWithTags())
			return err
		},
	}
}
