package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"nutramind/internal/adapter/sqlite"
	"nutramind/internal/adapter/syncclient"
	"nutramind/internal/metrics"
	"nutramind/internal/offline"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Interval    time.Duration
	MetricsAddr string
}

// WatchResult is the JSON form printed when watch exits.
type WatchResult struct {
	Drains      int    `json:"drains"`
	Depth       int    `json:"depth"`
	SyncPending bool   `json:"syncPending"`
	LastError   string `json:"lastError,omitempty"`
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Drain the queue every time the server comes back",
		Long: `Poll the server's health endpoint and drain the queue once on every
offline to online transition. Runs until interrupted.

With --metrics-addr the queue depth, sync-pending flag and connectivity are
served for Prometheus at /metrics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", 10*time.Second, "health check interval")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "address to serve /metrics on (disabled when empty)")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	if opts.Server == "" {
		return WrapExitError(ExitCommandError, "no server", fmt.Errorf("set --server or NUTRASYNC_SERVER"))
	}
	if opts.Interval <= 0 {
		return WrapExitError(ExitCommandError, "invalid interval", fmt.Errorf("%s is not positive", opts.Interval))
	}
	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := opts.logger(cmd).With().Str("component", "watch").Logger()

	st, err := sqlite.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open queue database", err)
	}
	defer func() { _ = st.Close() }()

	qm := metrics.NewQueue(log)
	client := syncclient.New(opts.Server, opts.Token)
	session, err := offline.NewSession(ctx, opts.UserID, st, client, qm, log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load queue", err)
	}

	if opts.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", qm.Handler())
		srv := &http.Server{Addr: opts.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	log.Info().Str("server", opts.Server).Dur("interval", opts.Interval).Int("queued", session.Queue().Len()).Msg("watching")
	session.Watch(ctx, client, opts.Interval)
	// Let a drain that is already on the wire finish before closing.
	session.Monitor().Wait()

	drains := session.Monitor().Drains()
	if err := session.Close(context.Background(), false); err != nil {
		return WrapExitError(ExitCommandError, "failed to close session", err)
	}

	q := session.Queue()
	res := WatchResult{Drains: drains, Depth: q.Len(), SyncPending: q.SyncPending()}
	if err := q.LastError(); err != nil {
		res.LastError = err.Error()
	}
	return output(cmd.OutOrStdout(), opts.Format, res, func(w io.Writer) {
		fmt.Fprintf(w, "%d drains, %d queued\n", res.Drains, res.Depth)
	})
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
