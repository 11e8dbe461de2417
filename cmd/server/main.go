package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tamilbot/internal/api"
	"tamilbot/internal/assistant"
	"tamilbot/internal/chat"
	"tamilbot/internal/config"
	"tamilbot/internal/logging"
	redisdb "tamilbot/internal/redis"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tamilbot",
	Short: "Tamil literature and history assistant",
	Long: `tamilbot answers questions about Tamil literature, history and culture
in Tamil. Each answer is grounded in Wikipedia and, when that is too thin,
in a web search, then written by Gemini.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Development)
		if err != nil {
			return fmt.Errorf("logger error: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE:  runServe,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to the JSON config file (empty for environment only)")
	rootCmd.AddCommand(serveCmd, askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.GeneratedJWTSecret {
		logger.Warn("server.jwt_secret is empty; using a per-process secret, tokens will not survive a restart")
	}
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		logger.Warn("credentials missing; questions will be refused until they are set", zap.Strings("missing", missing))
	}

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		logger.Info("redis session presence enabled", zap.String("addr", cfg.Redis.Addr))
	}

	store := chat.NewStore(cfg.Server.SessionTTL)
	store.OnChange(a.metrics.SetActiveSessions)
	sweepEvery := cfg.Server.SessionTTL / 4
	if sweepEvery <= 0 || sweepEvery > time.Minute {
		sweepEvery = time.Minute
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(api.Deps{
		Config:    cfg,
		Assistant: a.assistant,
		Store:     store,
		Redis:     rdb,
		Metrics:   a.metrics,
		Searcher:  a.searcher,
		Providers: a.providers,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		store.Run(gctx, sweepEvery)
		return nil
	})
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("subpath", cfg.Server.Subpath),
			zap.String("search_provider", cfg.Search.Provider),
			zap.String("model", cfg.Generation.Model))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var conv chat.Conversation
	reply, err := a.assistant.Ask(ctx, &conv, strings.Join(args, " "))
	if errors.Is(err, assistant.ErrConfiguration) {
		return fmt.Errorf("%w: missing %s", err, strings.Join(cfg.MissingCredentials(), ", "))
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, reply.Turn.Content)
	if reply.Turn.SourceLabel != "" {
		fmt.Fprintf(out, "\nமூலம்: %s\n", reply.Turn.SourceLabel)
	}
	if reply.Turn.SourceURL != "" {
		fmt.Fprintln(out, reply.Turn.SourceURL)
	}
	for _, w := range reply.Warnings {
		logger.Warn("source unavailable", zap.String("source", w.Source), zap.String("reason", w.Reason))
	}
	if reply.Failed {
		return errors.New("generation failed")
	}
	return nil
}
