package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slotfair/slotfair/adapter/api"
	"github.com/slotfair/slotfair/internal/app"
	"github.com/slotfair/slotfair/pkg/config"
	"github.com/slotfair/slotfair/pkg/observability"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "slotfair",
		Short: "Slotfair - calendar availability engine",
		Long: `Slotfair computes bookable time slots for organizers from weekly
availability rules, date overrides, blocked times, and existing bookings,
with timezone-aware multi-invitee intersection.`,
	}

	rootCmd.AddCommand(newServeCmd(), newSweepCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newServeCmd runs the HTTP API with the cache sweeper alongside.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the availability HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			cfg, logger, container, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer container.Close()

			handler := api.NewAvailabilityHandler(api.AvailabilityHandlerConfig{
				Calculator:           container.Calculator,
				CreateRule:           container.CreateRule,
				CreateOverride:       container.CreateOverride,
				CreateBlockedTime:    container.CreateBlockedTime,
				CreateRecurringBlock: container.CreateRecurringBlock,
				UpdateBuffer:         container.UpdateBuffer,
				Logger:               logger,
			})

			serverCfg := api.DefaultServerConfig()
			serverCfg.Addr = cfg.HTTPAddr
			server := api.NewServer(serverCfg, handler, logger)

			go func() {
				if err := container.Sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("cache sweeper error", "error", err)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			container.Sweeper.Stop()
			return server.Shutdown(shutdownCtx)
		},
	}
}

// newSweepCmd runs the cache sweeper standalone, for deployments that keep
// invalidation off the API nodes.
func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run the cache invalidation sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			_, logger, container, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer container.Close()

			if err := container.Sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("cache sweeper error", "error", err)
				return err
			}
			return nil
		},
	}
}

func bootstrap(ctx context.Context) (*config.Config, *slog.Logger, *app.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := observability.LoggerFromEnv()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initializing container: %w", err)
	}

	return cfg, logger, container, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}
