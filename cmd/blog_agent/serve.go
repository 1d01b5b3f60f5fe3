package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/keyword-blog/internal/completion"
	"github.com/jonathan/keyword-blog/internal/config"
	"github.com/jonathan/keyword-blog/internal/db"
	"github.com/jonathan/keyword-blog/internal/generation"
	"github.com/jonathan/keyword-blog/internal/llm"
	"github.com/jonathan/keyword-blog/internal/logger"
	"github.com/jonathan/keyword-blog/internal/metrics"
	"github.com/jonathan/keyword-blog/internal/prompts"
	"github.com/jonathan/keyword-blog/internal/server"
	"github.com/jonathan/keyword-blog/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes keyword research, blog generation and highlighting endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "Apply pending database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	if _, err := prompts.Load(); err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveMigrate {
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	m := metrics.New()
	highlights, closeCache := newHighlightCache(ctx, cfg, log, m)
	defer func() { _ = closeCache() }()

	generator := newGenerator(cfg, database, client, log, m)

	srv := server.New(server.Config{
		Port:          cfg.Port,
		AllowedOrigin: cfg.AllowedOrigin,
		RateLimit:     ratelimit.LoadConfig(cfg.RateLimitPerMinute, cfg.GenerateLimitPerMin),
		WriteTimeout:  time.Duration(cfg.GenerationTimeout)*time.Second + time.Minute,
	}, server.Deps{
		Store:      database,
		Generator:  generator,
		Highlights: highlights,
		Metrics:    m,
		Logger:     log,
	})

	return srv.Start(ctx)
}

// newGenerator wires the generation pipeline to PostgreSQL and the generation service.
func newGenerator(cfg *config.Config, database *db.DB, client llm.Client, log *logger.Logger, m *metrics.Metrics) *generation.Generator {
	return generation.NewGenerator(generation.NewPostgresStore(database), client, log, m, generation.Options{
		Completion: completion.Options{
			CallToActionURL:  cfg.CallToActionURL,
			CallToActionText: cfg.CallToActionText,
			DefaultLocation:  cfg.DefaultLocation,
		},
		DefaultLocation: cfg.DefaultLocation,
		Tier:            llm.TierStandard,
		Timeout:         time.Duration(cfg.GenerationTimeout) * time.Second,
	})
}
