package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"nutramind/internal/adapter/syncclient"
)

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	Username string
	Password string
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain a session token for drain",
		Long: `Log in to the server and print a session token. Pass it to drain with
--token or the NUTRASYNC_TOKEN environment variable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Username, "username", "", "account name")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runLogin(opts *LoginOptions, cmd *cobra.Command) error {
	if opts.Server == "" {
		return WrapExitError(ExitCommandError, "no server", fmt.Errorf("set --server or NUTRASYNC_SERVER"))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	token, err := syncclient.New(opts.Server, "").Login(ctx, opts.Username, opts.Password)
	if err != nil {
		return WrapExitError(ExitCommandError, "login failed", err)
	}
	res := map[string]string{"token": token}
	return output(cmd.OutOrStdout(), opts.Format, res, func(w io.Writer) {
		fmt.Fprintln(w, token)
	})
}
