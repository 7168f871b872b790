package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caffeineduck/codecollab/auth"
	"github.com/caffeineduck/codecollab/editor"
	"github.com/caffeineduck/codecollab/internal/config"
	"github.com/caffeineduck/codecollab/internal/logging"
	"github.com/caffeineduck/codecollab/internal/ratelimit"
	"github.com/caffeineduck/codecollab/room"
	"github.com/caffeineduck/codecollab/server"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing the editor, interpreter, rooms and auth stub.

Endpoints:
  GET    /health                    Health check
  GET    /api/languages             Supported languages
  GET    /api/themes                Editor themes
  GET    /api/templates/{lang}      Starter template
  POST   /api/execute               Pseudo-execute code (rate limited)
  POST   /api/auth/signin           Sign in, returns a token
  POST   /api/auth/signup           Sign up, returns a token
  POST   /api/auth/oauth/{provider} Third-party sign-in (not implemented)
  GET    /api/editor/state          Load the editor session
  PUT    /api/editor/state          Replace the editor session
  POST   /api/editor/run            Run the buffer
  POST   /api/editor/language       Switch language
  GET    /api/editor/download       Download the buffer
  POST   /api/rooms                 Create a room (token required)
  POST   /api/rooms/join            Join a room (token required)

Settings come from the config file, the .env file, CODECOLLAB_* variables
and the flags below, in increasing order of precedence.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default :8080)")
	serveCmd.Flags().String("storage", "", "Editor state backend: memory, file, redis")
	serveCmd.Flags().String("storage-dir", "", "Directory for the file backend")
	serveCmd.Flags().String("redis-addr", "", "Redis address for the redis backend")
	serveCmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	serveCmd.Flags().Bool("simulate-latency", false, "Add the web client's artificial delays")
	rootCmd.AddCommand(serveCmd)
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	set := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	set("addr", &cfg.Server.Addr)
	set("storage", &cfg.Storage.Backend)
	set("storage-dir", &cfg.Storage.Dir)
	set("redis-addr", &cfg.Storage.RedisAddr)
	set("log-level", &cfg.Log.Level)
	if on, _ := flags.GetBool("simulate-latency"); on {
		cfg.SimulateLatency()
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	in, closer, err := newInterpreter(cfg.Execution)
	if err != nil {
		return err
	}
	defer closer.Close()

	editors := editor.NewManager(store, in, logger,
		editor.WithAutosaveInterval(cfg.Editor.AutosaveInterval.Std()),
		editor.WithIdleTTL(cfg.Editor.IdleTTL.Std()),
		editor.WithSessionRunDelay(cfg.Editor.RunDelay.Std()),
	)
	defer editors.Shutdown()

	rooms := room.NewService(
		room.WithTTL(cfg.Rooms.TTL.Std()),
		room.WithDelay(cfg.Rooms.Delay.Std()),
		room.WithLogger(logger),
	)
	defer rooms.Close()

	if cfg.Auth.Secret == "" {
		logger.Warn("no auth secret configured, tokens will not survive a restart")
	}
	authSvc := auth.NewService(cfg.Auth.Secret,
		auth.WithTokenTTL(cfg.Auth.TokenTTL.Std()),
		auth.WithDelay(cfg.Auth.Delay.Std()),
	)

	srv := server.New(server.Options{
		Addr:            cfg.Server.Addr,
		AllowOrigins:    cfg.Server.AllowOrigins,
		TrustedProxies:  cfg.Server.TrustedProxies,
		ReadTimeout:     cfg.Server.ReadTimeout.Std(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Std(),
	}, server.Deps{
		Interp:  in,
		Editors: editors,
		Rooms:   rooms,
		Auth:    authSvc,
		Limiter: ratelimit.NewIPLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window.Std()),
		Logger:  logger,
	})

	logger.Info("starting codecollab",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("evaluator", cfg.Execution.Evaluator),
	)
	return srv.Run(ctx)
}

// newStore opens the editor state backend cfg selects. The returned func
// releases it.
func newStore(ctx context.Context, cfg config.StorageConfig) (editor.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", config.StorageMemory:
		return editor.NewMemoryStore(), noop, nil
	case config.StorageFile:
		s, err := editor.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return editor.NewRedisStore(client, cfg.TTL.Std()), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
