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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/leejason2025/audiostudio/config"
	"github.com/leejason2025/audiostudio/handler"
	"github.com/leejason2025/audiostudio/middleware"
	"github.com/leejason2025/audiostudio/pkg/logger"
	"github.com/leejason2025/audiostudio/queue"
	"github.com/leejason2025/audiostudio/service"
	"github.com/leejason2025/audiostudio/worker"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "audiostudio",
		Usage: "audio transcription and summarization service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API server",
				Flags:  commonFlags(),
				Action: serveAction,
			},
			{
				Name:   "worker",
				Usage:  "run a processing worker against the Redis broker",
				Flags:  commonFlags(),
				Action: workerAction,
			},
			{
				Name:   "check-credentials",
				Usage:  "verify the configured OpenAI API key and exit",
				Flags:  commonFlags(),
				Action: checkCredentialsAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to the YAML config file",
			Value: "config.yaml",
		},
		&cli.StringFlag{
			Name:  "env",
			Usage: "path to the .env file",
			Value: ".env",
		},
	}
}

// loadConfig reads the .env file, builds the configuration and initializes
// logging. A missing .env file is not an error.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	if envFile := cmd.String("env"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	return cfg, nil
}

func newStore(ctx context.Context, cfg *config.Config) (service.Store, error) {
	if cfg.Database.URL != "" {
		store, err := service.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("using postgres job store")
		return store, nil
	}
	slog.Info("using in-memory job store", "max_jobs", cfg.Database.MaxJobs)
	return service.NewMemoryStore(cfg.Database.MaxJobs), nil
}

// newArchiver builds the optional audio archiver. It returns a nil interface
// when no archive endpoint is configured.
func newArchiver(ctx context.Context, cfg *config.Config) (worker.Archiver, error) {
	if !cfg.Archive.Enabled() {
		return nil, nil
	}
	svc, err := service.NewArchiveService(&cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive storage: %w", err)
	}
	if err := svc.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure archive bucket: %w", err)
	}
	slog.Info("archiving processed audio", "bucket", cfg.Archive.Bucket)
	return svc, nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// External workers read jobs from the database; a broker without one
	// would dispatch tasks no worker can resolve.
	if cfg.Queue.RedisURL != "" && cfg.Database.URL == "" {
		return errors.New("REDIS_URL requires DATABASE_URL: external workers cannot see the in-memory store")
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	files := service.NewFileStore(&cfg.Upload)
	if err := files.Prepare(); err != nil {
		return fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	transcriber := service.NewTranscriber(&cfg.OpenAI)
	summarizer := service.NewSummarizer(&cfg.OpenAI)

	archiver, err := newArchiver(ctx, cfg)
	if err != nil {
		return err
	}

	var dispatcher queue.Dispatcher
	if cfg.Queue.RedisURL != "" {
		d, err := queue.NewAsynqDispatcher(cfg.Queue.RedisURL)
		if err != nil {
			return err
		}
		dispatcher = d
		slog.Info("dispatching jobs to redis broker")
	} else {
		processor := worker.NewProcessor(store, transcriber, summarizer, files, archiver)
		pool := queue.NewInlinePool(cfg.Queue.Concurrency, processor.Process)
		pool.Start(ctx)
		dispatcher = pool
		slog.Info("processing jobs in-process", "concurrency", cfg.Queue.Concurrency)
	}
	defer dispatcher.Close()

	jobHandler := handler.NewJobHandler(store, files, dispatcher)
	healthHandler := handler.NewHealthHandler(cfg.OpenAI.APIKey != "", transcriber)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(100, time.Minute))

	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.Health)
	router.POST("/upload", jobHandler.Upload)
	router.GET("/status/:job_id", jobHandler.GetStatus)
	router.GET("/result/:job_id", jobHandler.GetResult)
	router.DELETE("/jobs/:job_id", jobHandler.Delete)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited gracefully")
	return nil
}

func workerAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Queue.RedisURL == "" {
		return errors.New("worker requires REDIS_URL")
	}
	if cfg.Database.URL == "" {
		return errors.New("worker requires DATABASE_URL: workers share job state through the database")
	}

	store, err := service.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	archiver, err := newArchiver(ctx, cfg)
	if err != nil {
		return err
	}

	processor := worker.NewProcessor(
		store,
		service.NewTranscriber(&cfg.OpenAI),
		service.NewSummarizer(&cfg.OpenAI),
		service.NewFileStore(&cfg.Upload),
		archiver,
	)
	return queue.RunWorker(ctx, cfg.Queue.RedisURL, cfg.Queue.Concurrency, processor.Process)
}

func checkCredentialsAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.OpenAI.APIKey == "" {
		return errors.New("OPENAI_API_KEY is not set")
	}
	fmt.Printf("OPENAI_API_KEY is set (length: %d characters)\n", len(cfg.OpenAI.APIKey))

	ok := true
	if service.NewTranscriber(&cfg.OpenAI).ValidateCredentials(ctx) {
		fmt.Println("whisper credentials: valid")
	} else {
		fmt.Println("whisper credentials: validation failed")
		ok = false
	}
	if service.NewSummarizer(&cfg.OpenAI).ValidateCredentials(ctx) {
		fmt.Println("chat credentials: valid")
	} else {
		fmt.Println("chat credentials: validation failed")
		ok = false
	}

	if !ok {
		return errors.New("credential check failed")
	}
	fmt.Println("OpenAI API key is properly configured")
	return nil
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
