// Package serve provides the command running the camera relay HTTP API.
package serve

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/camrelay/internal/api"
	"github.com/tphakala/camrelay/internal/app"
	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/logger"
	"github.com/tphakala/camrelay/internal/observability"
	"github.com/tphakala/camrelay/internal/telemetry"
)

const telemetryFlushTimeout = 2 * time.Second

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the camera HTTP API",
		Long:  "Open the metadata store, connect the stream relays and serve the camera API until SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			l, err := net.Listen("tcp", settings.HTTP.Addr())
			if err != nil {
				return fmt.Errorf("listen on %s: %w", settings.HTTP.Addr(), err)
			}
			return run(ctx, settings, l, logger.Global())
		},
	}

	if err := setupFlags(cmd); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("host", "", "Interface to listen on")
	cmd.Flags().Int("port", 0, "Port to listen on")

	if err := viper.BindPFlag("http.host", cmd.Flags().Lookup("host")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if err := viper.BindPFlag("http.port", cmd.Flags().Lookup("port")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

// run serves on l until ctx is cancelled, then shuts the server down and releases the
// store and relay clients.
func run(ctx context.Context, settings *conf.Settings, l net.Listener, log logger.Logger) error {
	if err := telemetry.InitSentry(settings, log); err != nil {
		// telemetry is optional, keep serving without it
		log.Warn("failed to initialize Sentry", logger.Error(err))
	}
	defer telemetry.Shutdown(telemetryFlushTimeout)

	var metrics *observability.Metrics
	if settings.Metrics.Enabled {
		m, err := observability.NewMetrics()
		if err != nil {
			_ = l.Close()
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		metrics = m
	}

	components, err := app.New(settings, log, app.WithMetrics(metrics))
	if err != nil {
		_ = l.Close()
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			log.Error("failed to close components", logger.Error(err))
		}
	}()

	srv, err := api.New(settings, components.Cameras, components.Store,
		api.WithMetrics(metrics), api.WithLogger(log))
	if err != nil {
		_ = l.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(l)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return srv.Shutdown(context.WithoutCancel(ctx))
	})

	return g.Wait()
}
