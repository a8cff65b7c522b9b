package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nutramind/internal/offline"
)

// StatusResult is the JSON form of the status command.
type StatusResult struct {
	UserID      int64           `json:"userId"`
	Depth       int             `json:"depth"`
	SyncPending bool            `json:"syncPending"`
	LastError   string          `json:"lastError,omitempty"`
	Entries     []offline.Entry `json:"entries"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show queued mutations and the last sync error",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	q, closeStore, err := opts.openQueue(context.Background(), cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	res := StatusResult{
		UserID:      q.UserID(),
		Depth:       q.Len(),
		SyncPending: q.SyncPending(),
		Entries:     q.Pending(),
	}
	if err := q.LastError(); err != nil {
		res.LastError = err.Error()
	}

	return output(cmd.OutOrStdout(), opts.Format, res, func(w io.Writer) {
		fmt.Fprintf(w, "user %d: %d queued", res.UserID, res.Depth)
		if res.SyncPending {
			fmt.Fprint(w, " (sync pending)")
		}
		fmt.Fprintln(w)
		if res.LastError != "" {
			fmt.Fprintf(w, "last error: %s\n", res.LastError)
		}
		for i, e := range res.Entries {
			m := e.Mutation
			target := m.RecordID
			if e.LocalID != "" {
				target = e.LocalID
			}
			fmt.Fprintf(w, "%3d  %-6s %-12s %-40s %s\n", i+1, m.Kind, m.Collection, target, m.Key)
		}
	})
}
