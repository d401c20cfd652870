package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/jobni/internal/config"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/db/memdb"
	"github.com/jonathan/jobni/internal/events"
	"github.com/jonathan/jobni/internal/server"
	"github.com/jonathan/jobni/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the HTTP server exposing the REST API, the notification stream and
the conversation sockets. The server shuts down gracefully on SIGINT or SIGTERM.

Set DATABASE_URL=memory:// to run against an in-process store.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	passwords, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart && cfg.DatabaseURL != memdb.URL {
		if err := db.Migrate(cfg.DatabaseURL, db.MigrateUp); err != nil {
			return err
		}
		log.Info("database migrations applied")
	}

	store, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		publisher = amqpPub
		log.WithField("exchange", cfg.AMQPExchange).Info("publishing domain events")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("failed to close event publisher")
		}
	}()

	srv, err := server.New(server.Config{
		Addr:            cfg.Addr(),
		CORSOrigins:     cfg.Origins(),
		NotifyLocale:    cfg.NotifyLocale,
		ShutdownTimeout: cfg.ShutdownTimeout,
		JWT:             jwtCfg,
		Passwords:       passwords,
		RateLimit:       ratelimit.LoadConfig(),
	}, store, publisher, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx)
}
