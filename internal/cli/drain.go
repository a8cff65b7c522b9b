package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"nutramind/internal/adapter/syncclient"
)

// DrainOptions holds flags for the drain command.
type DrainOptions struct {
	*RootOptions
	Timeout time.Duration
}

// DrainResult is the JSON form of the drain command.
type DrainResult struct {
	Applied   []string `json:"applied"`
	FailedKey string   `json:"failedKey,omitempty"`
	Error     string   `json:"error,omitempty"`
	Remaining int      `json:"remaining"`
}

// NewDrainCommand creates the drain command.
func NewDrainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DrainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Deliver queued mutations to the server",
		Long: `Deliver queued mutations in order. The first failure stops the drain;
the failed mutation and everything behind it stay queued for the next run.

Exit codes:
  0 - queue fully drained
  1 - drain stopped on a failed mutation
  2 - command error`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrain(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Timeout, "timeout", time.Minute, "overall drain timeout")

	return cmd
}

func runDrain(opts *DrainOptions, cmd *cobra.Command) error {
	if opts.Server == "" {
		return WrapExitError(ExitCommandError, "no server", fmt.Errorf("set --server or NUTRASYNC_SERVER"))
	}
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	q, closeStore, err := opts.openQueue(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	dr, drainErr := q.Drain(ctx, syncclient.New(opts.Server, opts.Token))
	res := DrainResult{Applied: dr.Applied, Remaining: dr.Remaining}
	if res.Applied == nil {
		res.Applied = []string{}
	}
	if dr.Failed != nil {
		res.FailedKey = dr.Failed.Mutation.Key
	}
	if drainErr != nil {
		res.Error = drainErr.Error()
	}

	if err := output(cmd.OutOrStdout(), opts.Format, res, func(w io.Writer) {
		fmt.Fprintf(w, "applied %d, %d remaining\n", len(res.Applied), res.Remaining)
		if res.Error != "" {
			fmt.Fprintf(w, "stopped: %s\n", res.Error)
		}
	}); err != nil {
		return err
	}
	if drainErr != nil {
		return WrapExitError(ExitFailure, "drain incomplete", drainErr)
	}
	return nil
}
