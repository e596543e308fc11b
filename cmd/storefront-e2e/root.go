package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kuitang/storefront-e2e/internal/config"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/obs"
)

// rootOptions holds global flags and the profile they resolve to.
type rootOptions struct {
	ProfileName string
	Mode        string
	Verbose     bool

	profile *config.Profile
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "storefront-e2e",
		Short: "End-to-end and API checks for the storefront",
		Long: `Runs browser scenarios written in Gherkin and API scenarios against the
storefront, retrying failed scenarios and writing a report per run.

Profiles pick the target environment; E2E_* variables override single settings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ProfileName, "profile", "p", "", "configuration profile (default|dev|qa|prod); E2E_PROFILE when empty")
	cmd.PersistentFlags().StringVar(&opts.Mode, "mode", "", "retry mode (run|open)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging and godog output")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newAPICommand(opts))
	cmd.AddCommand(newProfilesCommand(opts))
	cmd.AddCommand(newStepsCommand())

	return cmd
}

func (o *rootOptions) setup() error {
	p, err := config.Load(o.ProfileName)
	if err != nil {
		return errs.Wrap(errs.InvalidConfiguration, "load profile", err)
	}
	switch config.Mode(o.Mode) {
	case "":
	case config.ModeRun, config.ModeOpen:
		p.Mode = config.Mode(o.Mode)
	default:
		return errs.Newf(errs.InvalidConfiguration, "invalid mode %q: must be run or open", o.Mode)
	}

	level := obs.ParseLevel(p.LogLevel)
	if o.Verbose {
		level = slog.LevelDebug
	}
	obs.Init(obs.Options{Level: level, Tag: p.LogTag})
	o.profile = p
	return nil
}

func newRunID() string {
	return time.Now().UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
}

// failuresError marks a run whose scenarios failed; the report already says why.
type failuresError struct {
	failed int
}

func (e *failuresError) Error() string {
	return fmt.Sprintf("%d scenario(s) failed", e.failed)
}

func reportError(w io.Writer, err error) int {
	fmt.Fprintln(w, "error:", err)
	var fe *failuresError
	if errors.As(err, &fe) {
		return 1
	}
	return errs.ExitCode(errs.CodeOf(err))
}
