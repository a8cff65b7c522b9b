// Package cli implements the nutrasync command, which manages a device's
// offline mutation queue from the shell.
package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nutramind/internal/adapter/sqlite"
	"nutramind/internal/logging"
	"nutramind/internal/offline"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Database string
	Server   string
	Token    string
	UserID   int64
	Verbose  bool
	Format   string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for nutrasync.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "nutrasync",
		Short: "Manage the offline mutation queue",
		Long: `nutrasync keeps a local queue of food, weight, symptom and goal writes
and delivers them to a nutramind server in order once it is reachable.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError, "invalid format", fmt.Errorf("%q is not one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "nutrasync.db", "path to the local queue database")
	cmd.PersistentFlags().StringVar(&opts.Server, "server", os.Getenv("NUTRASYNC_SERVER"), "nutramind server URL")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("NUTRASYNC_TOKEN"), "session token from login")
	cmd.PersistentFlags().Int64Var(&opts.UserID, "user", 1, "id of the queue owner")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewEnqueueCommand(opts))
	cmd.AddCommand(NewDrainCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func (o *RootOptions) logger(cmd *cobra.Command) zerolog.Logger {
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	log, err := logging.New(level, logging.FormatConsole, cmd.ErrOrStderr())
	if err != nil {
		return zerolog.Nop()
	}
	return log
}

// openQueue opens the local store and restores the owner's queue. The
// returned func closes the store.
func (o *RootOptions) openQueue(ctx context.Context, cmd *cobra.Command) (*offline.Queue, func(), error) {
	st, err := sqlite.Open(o.Database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open queue database", err)
	}
	q, err := offline.OpenQueue(ctx, o.UserID, st, nil, o.logger(cmd))
	if err != nil {
		_ = st.Close()
		return nil, nil, WrapExitError(ExitCommandError, "failed to load queue", err)
	}
	return q, func() { _ = st.Close() }, nil
}
