package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	transport "promo-quiz-service/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string, ephemeral *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, *ephemeral)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config and PORT)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string, ephemeral bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := loadServices(ctx, configPath, ephemeral)
	if err != nil {
		return err
	}
	defer svc.Close()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = svc.cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	publicDir := ""
	if svc.selector.AssetStore() == svc.localAssets {
		publicDir = svc.localAssets.Root()
	}
	handler := transport.NewRouter(transport.RouterConfig{
		API:       transport.NewHandler(svc.content, svc.submissions, svc.uploads, svc.cfg.MaxUploadBytes(), svc.log),
		Feed:      transport.NewFeedHandler(svc.submissions, svc.log),
		PublicDir: publicDir,
		Log:       svc.log,
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		svc.log.Info().Str("addr", server.Addr).Msg("starting promo quiz service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		svc.log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		svc.log.Info().Msg("context canceled, shutting down server...")
	case err := <-errCh:
		svc.log.Error().Err(err).Msg("failed to start server")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
