package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "reset",
		Short:         "Discard every queued mutation",
		Long:          "Discard the owner's queued mutations, committed id map and last error. Undelivered writes are lost.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			q, closeStore, err := rootOpts.openQueue(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			dropped := q.Len()
			if err := q.Reset(ctx); err != nil {
				return WrapExitError(ExitCommandError, "reset failed", err)
			}
			res := map[string]int{"dropped": dropped}
			return output(cmd.OutOrStdout(), rootOpts.Format, res, func(w io.Writer) {
				fmt.Fprintf(w, "dropped %d queued mutations\n", dropped)
			})
		},
	}
}
