package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapexpr/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the formula engine over HTTP",
		Long: `Start a JSON API exposing tokenize, parse, check, compile, format,
suggest and clause listing. The server stops gracefully on SIGINT or
SIGTERM.

With --watch, clients subscribed to /v1/events are told when the
metadata file changes.`,
		Example: `  leapexpr serve --addr 127.0.0.1:8420 --watch

  curl -s localhost:8420/v1/check -H 'Content-Type: application/json' \
    -d '{"source": "Sum([Total])", "mode": "aggregation"}'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
	return cmd
}

func runServe(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srvCfg := cmdCtx.Cfg.GetServerConfig()
	srv := server.NewServer(server.Config{
		Engine:          cmdCtx.Engine,
		Addr:            srvCfg.Addr,
		ReadTimeout:     srvCfg.ReadTimeout,
		ShutdownTimeout: srvCfg.ShutdownTimeout,
		Logger:          cmdCtx.Logger,
	})
	cmdCtx.WatchMetadata(ctx, srv.Notifier().Broadcast)

	r := cmdCtx.Renderer
	r.Printf("Serving on http://%s (Ctrl+C to stop)\n", srvCfg.Addr)
	if err := srv.Serve(ctx); err != nil {
		return err
	}
	r.Println("Server stopped")
	return nil
}
