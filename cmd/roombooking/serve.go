package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/room-booking/internal/config"
	httptransport "github.com/example/room-booking/internal/http"
	"github.com/example/room-booking/internal/sweeper"
)

func newServeCmd(rt *runtime) *cobra.Command {
	var noSweep bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled expiry sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := rt.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					rt.logger.Error("failed to close storage", "error", cerr)
				}
			}()

			publisher, err := rt.openPublisher()
			if err != nil {
				return err
			}
			defer func() {
				if cerr := publisher.Close(); cerr != nil {
					rt.logger.Error("failed to close event publisher", "error", cerr)
				}
			}()

			svc := rt.newServices(store, publisher)

			if !noSweep {
				runner, err := sweeper.New(svc.Bookings, rt.cfg.SweepSchedule, rt.logger)
				if err != nil {
					return err
				}
				go func() {
					if err := runner.Run(ctx); err != nil {
						rt.logger.Error("sweeper stopped", "error", err)
					}
				}()
			}

			server := &http.Server{
				Addr:              rt.cfg.HTTPAddr(),
				Handler:           newHandler(svc, rt.cfg, rt.logger),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			return serveHTTP(ctx, server, rt.cfg.ShutdownTimeout, rt.logger)
		},
	}

	cmd.Flags().BoolVar(&noSweep, "no-sweep", false, "do not schedule the expiry sweep")
	return cmd
}

// newHandler assembles the API: request logging, then rate limiting, then principal resolution.
func newHandler(svc services, cfg config.Config, logger *slog.Logger) http.Handler {
	limiter := httptransport.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Bookings:      httptransport.NewBookingHandler(svc.Bookings, logger),
		Rooms:         httptransport.NewRoomHandler(svc.Rooms, logger),
		Accounts:      httptransport.NewAccountHandler(svc.Accounts, logger),
		Notifications: httptransport.NewNotificationHandler(svc.Notifications, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			limiter.Middleware(logger),
			httptransport.RequirePrincipal(svc.Accounts, logger),
		},
	})
}

// serveHTTP blocks until ctx is cancelled or the server fails, then drains
// open connections for at most timeout.
func serveHTTP(ctx context.Context, server *http.Server, timeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("room booking API listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	logger.Info("shutting down", "timeout", timeout)
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
