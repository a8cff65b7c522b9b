package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nutramind/internal/domain"
	"nutramind/internal/offline"
)

// EnqueueOptions holds flags for the enqueue command.
type EnqueueOptions struct {
	*RootOptions
	Kind       string
	Collection string
	RecordID   string
	Payload    string
}

// EnqueueResult is the JSON form of the enqueue command.
type EnqueueResult struct {
	Ref   offline.Ref `json:"ref"`
	Depth int         `json:"depth"`
}

// NewEnqueueCommand creates the enqueue command.
func NewEnqueueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EnqueueOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a mutation for later delivery",
		Long: `Queue an add, update or delete against one of the collections
foodEntries, weights, symptoms or goals.

Adds print a pending reference (tmp_...) that later updates and deletes
may name before the add has reached the server.

Examples:
  nutrasync enqueue --kind add --collection weights --payload '{"value":80,"unit":"kg"}'
  nutrasync enqueue --kind update --collection foodEntries --record tmp_... --payload '{"time":"09:00"}'
  nutrasync enqueue --kind delete --collection goals --record '*'`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnqueue(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "mutation kind (add|update|delete)")
	cmd.Flags().StringVar(&opts.Collection, "collection", "", "target collection")
	cmd.Flags().StringVar(&opts.RecordID, "record", "", "record id for update and delete")
	cmd.Flags().StringVar(&opts.Payload, "payload", "", "JSON payload for add and update")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("collection")

	return cmd
}

func runEnqueue(opts *EnqueueOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	m := domain.Mutation{
		Kind:       domain.MutationKind(opts.Kind),
		Collection: opts.Collection,
		RecordID:   opts.RecordID,
	}
	if opts.Payload != "" {
		if !json.Valid([]byte(opts.Payload)) {
			return WrapExitError(ExitCommandError, "invalid payload", fmt.Errorf("not valid JSON"))
		}
		m.Payload = json.RawMessage(opts.Payload)
	}

	q, closeStore, err := opts.openQueue(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	ref, err := q.Enqueue(ctx, m)
	if err != nil {
		return WrapExitError(ExitCommandError, "enqueue failed", err)
	}

	res := EnqueueResult{Ref: ref, Depth: q.Len()}
	return output(cmd.OutOrStdout(), opts.Format, res, func(w io.Writer) {
		fmt.Fprintf(w, "%s (%d queued)\n", ref, res.Depth)
	})
}
