package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/signalgate/internal/config"
	"github.com/alfredjeanlab/signalgate/internal/events"
	"github.com/alfredjeanlab/signalgate/internal/gateway"
	"github.com/alfredjeanlab/signalgate/internal/router"
	"github.com/alfredjeanlab/signalgate/internal/server"
	"github.com/alfredjeanlab/signalgate/internal/settings"
	"github.com/alfredjeanlab/signalgate/internal/settings/postgres"
	sgsync "github.com/alfredjeanlab/signalgate/internal/sync"
)

var serveDebug bool

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the signalgate router",
	GroupID: "system",
	Long: `Start the router with its HTTP and gRPC front ends.

Configuration comes from the environment, optionally layered over the TOML
file named by SIGNALGATE_CONFIG. SIGNALGATE_OPERATOR_ID and
SIGNALGATE_GATEWAY_TOKEN are required. Without SIGNALGATE_NATS_URL outbound
messages are only logged; without SIGNALGATE_DATABASE_URL payment settings
live in memory.`,
	// Override PersistentPreRunE so we don't create an API client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if serveDebug {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Settings store.
		var store settings.Store
		if cfg.DatabaseURL != "" {
			pg, err := postgres.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			store = pg
			logger.Info("settings stored in postgres")
		} else {
			store = settings.NewMemoryStore()
			logger.Info("settings kept in memory (SIGNALGATE_DATABASE_URL not set)")
		}

		// Event bus and gateway. Publisher and subscriber share one connection.
		var (
			nc        *nats.Conn
			publisher events.Publisher
			gw        gateway.Gateway
			sub       *events.NATSSubscriber
		)
		if cfg.NATSURL != "" {
			nc, err = events.Connect(cfg.NATSURL,
				nats.Token(cfg.GatewayToken),
				nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
					logger.Warn("NATS disconnected", "err", err)
				}),
				nats.ReconnectHandler(func(c *nats.Conn) {
					logger.Info("NATS reconnected", "url", c.ConnectedUrl())
				}),
			)
			if err != nil {
				store.Close()
				return err
			}
			pub := events.NewNATSPublisherConn(nc)
			sub = events.NewNATSSubscriberConn(nc)
			publisher = pub
			gw = gateway.NewBusGateway(pub)
			logger.Info("bus gateway enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			gw = gateway.NewLogGateway(logger)
			logger.Info("log gateway in use (SIGNALGATE_NATS_URL not set)")
		}

		srv := server.New(router.Config{
			Operator:  cfg.OperatorID,
			Gateway:   gw,
			Settings:  store,
			Publisher: publisher,
			Logger:    logger,
		})

		srv.Router.StartSweeper(router.SweeperConfig{
			TTL:      cfg.PendingTTL,
			Interval: cfg.SweepInterval,
		})
		if cfg.PendingTTL > 0 {
			logger.Info("pending expiry enabled", "ttl", cfg.PendingTTL, "interval", cfg.SweepInterval)
		}

		// Inbound listener on the bus.
		listenCtx, listenCancel := context.WithCancel(context.Background())
		listenDone := make(chan struct{})
		if sub != nil {
			listener := gateway.NewListener(sub, srv.HandleInbound, logger)
			go func() {
				defer close(listenDone)
				if err := listener.Run(listenCtx); err != nil {
					logger.Error("inbound listener error", "err", err)
				}
			}()
			logger.Info("inbound listener started", "subject", events.SubjectInbound)
		} else {
			close(listenDone)
		}

		grpcServer := server.NewGRPCServer(srv, cfg.AuthToken)
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			listenCancel()
			<-listenDone
			srv.Router.StopSweeper()
			closeAll(logger, nc, sub, publisher, store)
			return err
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Snapshot export.
		var scheduler *sgsync.Scheduler
		if cfg.SnapshotInterval > 0 && cfg.SnapshotS3Bucket != "" {
			dest, err := sgsync.NewS3Destination(context.Background(), sgsync.S3Options{
				Bucket:   cfg.SnapshotS3Bucket,
				Key:      cfg.SnapshotS3Key,
				Region:   cfg.SnapshotS3Region,
				Endpoint: cfg.SnapshotS3Endpoint,
			})
			if err != nil {
				logger.Error("failed to create S3 snapshot destination", "err", err)
			} else {
				scheduler = sgsync.NewScheduler(srv.Router, store, []sgsync.Destination{dest}, cfg.SnapshotInterval, logger)
				scheduler.Start()
				logger.Info("snapshot export started",
					"bucket", cfg.SnapshotS3Bucket,
					"key", cfg.SnapshotS3Key,
					"interval", cfg.SnapshotInterval,
				)
			}
		}

		logger.Info("signalgate started",
			"operator", cfg.OperatorID,
			"http_addr", cfg.HTTPAddr,
			"grpc_addr", cfg.GRPCAddr,
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Fail health probes first, then stop intake.
		srv.Shutdown()

		listenCancel()
		<-listenDone
		logger.Info("inbound listener stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		srv.Router.StopSweeper()

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("snapshot export stopped")
		}

		closeAll(logger, nc, sub, publisher, store)
		logger.Info("shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "enable debug logging")
}

// closeAll releases bus handles, the shared NATS connection and the settings
// store.
func closeAll(logger *slog.Logger, nc *nats.Conn, sub *events.NATSSubscriber, pub events.Publisher, store settings.Store) {
	if sub != nil {
		if dropped := sub.Dropped(); dropped > 0 {
			logger.Warn("inbound events dropped while the listener was saturated", "count", dropped)
		}
		if err := sub.Close(); err != nil {
			logger.Error("error closing subscriber", "err", err)
		}
	}
	if err := pub.Close(); err != nil {
		logger.Error("error closing publisher", "err", err)
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			logger.Error("error draining NATS connection", "err", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("error closing settings store", "err", err)
	}
}
