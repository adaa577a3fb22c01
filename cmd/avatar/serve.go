package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/cli"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/logging"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/adapters/file"
	httpadapter "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/adapters/http"
	redisadapter "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/adapters/redis"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/host"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/observability"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/persistence/middleware"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/ports"
)

// serveConfig is the environment surface of the server. Flags override
// the environment where both are given.
type serveConfig struct {
	Port      string `env:"AVATAR_PORT" envDefault:"8080"`
	Catalog   string `env:"AVATAR_CATALOG"`
	FPS       int    `env:"AVATAR_FPS" envDefault:"30"`
	LogLevel  string `env:"AVATAR_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"AVATAR_LOG_FORMAT" envDefault:"text"`

	// Snapshot persistence. Redis wins over the file store when both are
	// set; neither means snapshots are disabled.
	StorePath     string        `env:"AVATAR_STORE_PATH"`
	RedisAddr     string        `env:"AVATAR_REDIS_ADDR"`
	RedisPassword string        `env:"AVATAR_REDIS_PASSWORD"`
	RedisDB       int           `env:"AVATAR_REDIS_DB" envDefault:"0"`
	RedisTTL      time.Duration `env:"AVATAR_REDIS_TTL"`

	// EncryptionKey seals snapshots with AES-256-GCM. Must be exactly 32
	// bytes when set.
	EncryptionKey string `env:"AVATAR_ENCRYPTION_KEY"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the multi-character HTTP server",
	Long: `Starts the character host in server mode: a JSON API with an SSE event
stream and Prometheus metrics. Characters are created on first use, tick
on a shared wall-clock timer, and are snapshotted on shutdown when a
store is configured.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides AVATAR_PORT)")
	serveCmd.Flags().Int("fps", 0, "Tick rate in frames per second (overrides AVATAR_FPS)")
	serveCmd.Flags().String("store", "", "Snapshot directory (overrides AVATAR_STORE_PATH)")
}

func loadServeConfig(cmd *cobra.Command, args []string) (serveConfig, error) {
	var cfg serveConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetString("port")
	}
	if cmd.Flags().Changed("fps") {
		cfg.FPS, _ = cmd.Flags().GetInt("fps")
	}
	if cmd.Flags().Changed("store") {
		cfg.StorePath, _ = cmd.Flags().GetString("store")
	}
	if path := catalogPath(cmd, args); path != "" {
		cfg.Catalog = path
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	return cfg, nil
}

// buildStore assembles the snapshot store chain from the configuration.
func buildStore(cfg serveConfig) (ports.StateStore, ports.DistributedLocker, error) {
	var store ports.StateStore
	var locker ports.DistributedLocker

	switch {
	case cfg.RedisAddr != "":
		rs := redisadapter.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redisadapter.WithTTL(cfg.RedisTTL))
		store = rs
		locker = redisadapter.NewLocker(rs.Client(), "avatar")
	case cfg.StorePath != "":
		store = file.New(cfg.StorePath)
	default:
		return nil, nil, nil
	}

	if cfg.EncryptionKey != "" {
		if len(cfg.EncryptionKey) != 32 {
			return nil, nil, fmt.Errorf("AVATAR_ENCRYPTION_KEY must be exactly 32 bytes, got %d", len(cfg.EncryptionKey))
		}
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey: []byte(cfg.EncryptionKey),
		})(store)
	}

	return store, locker, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	src, err := cli.ResolveSource(cfg.Catalog)
	if err != nil {
		return err
	}
	cat, err := src.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	collector := observability.NewCollector("avatar")
	collector.MustRegister(prometheus.DefaultRegisterer)

	store, locker, err := buildStore(cfg)
	if err != nil {
		return err
	}

	factory := func(name string) *avatar.Engine {
		engineOpts := []avatar.Option{
			avatar.WithName(name),
			avatar.WithLogger(logger),
			avatar.WithCatalog(cat),
			avatar.WithCatalogSource(src),
			avatar.WithMetrics(collector),
		}
		if _, ok := cat.Motion(cli.DefaultIdleGroup); ok {
			engineOpts = append(engineOpts, avatar.WithIdleMotion(cli.DefaultIdleGroup))
		}
		return avatar.New(engineOpts...)
	}

	hostOpts := []host.Option{host.WithLogger(logger)}
	if store != nil {
		hostOpts = append(hostOpts, host.WithStore(store))
	}
	if locker != nil {
		hostOpts = append(hostOpts, host.WithLocker(locker))
	}
	hosts := host.New(factory, hostOpts...)
	defer hosts.Close()

	if store != nil {
		restoreCharacters(cmd.Context(), hosts, logger)
	}

	httpOpts := []httpadapter.Option{httpadapter.WithLogger(logger)}
	if w, ok := src.(ports.Watchable); ok {
		httpOpts = append(httpOpts, httpadapter.WithCatalogWatch(w))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpadapter.NewHandler(hosts, httpOpts...),
	}

	// All characters share one wall-clock ticker.
	stopTicker := make(chan struct{})
	go func() {
		dt := time.Second / time.Duration(cfg.FPS)
		ticker := time.NewTicker(dt)
		defer ticker.Stop()
		for {
			select {
			case <-stopTicker:
				return
			case <-ticker.C:
				hosts.TickAll(dt)
			}
		}
	}()

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Starting avatar server", "addr", srv.Addr, "fps", cfg.FPS)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt or terminate signals.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		close(stopTicker)
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("Start shutdown", "signal", sig.String())
		close(stopTicker)

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil {
				logger.Error("Error killing server", "err", err)
			}
		}

		if store != nil {
			if err := hosts.SaveAll(ctx); err != nil {
				logger.Error("Final snapshot save failed", "err", err)
			} else if hosts.Len() > 0 {
				logger.Info("Characters snapshotted", "count", hosts.Len())
			}
		}
		logger.Info("Avatar server stopped gracefully")
	}
	return nil
}

// restoreCharacters rehydrates every persisted character at boot.
func restoreCharacters(ctx context.Context, hosts *host.Host, logger *slog.Logger) {
	names, err := hosts.List(ctx)
	if err != nil {
		logger.Warn("Snapshot listing failed", "err", err)
		return
	}
	for _, name := range names {
		if err := hosts.Restore(ctx, name); err != nil {
			logger.Warn("Restore failed", "character", name, "err", err)
			continue
		}
		logger.Info("Character restored", "character", name)
	}
}
