package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/keyword-blog/internal/config"
	"github.com/jonathan/keyword-blog/internal/llm"
	"github.com/jonathan/keyword-blog/internal/logger"
	"github.com/jonathan/keyword-blog/internal/metrics"
	"github.com/jonathan/keyword-blog/internal/rendering"
	"github.com/jonathan/keyword-blog/internal/types"
	"github.com/redis/go-redis/v9"
)

// loadConfig loads the config file named by --config overlaid with the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// newLLMClient builds the generation service client, applying a model override.
func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	llmConfig := llm.DefaultConfig()
	if cfg.Model != "" {
		llmConfig = llmConfig.WithModel(llm.TierStandard, cfg.Model)
	}
	client, err := llm.NewClient(ctx, llmConfig, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// newHighlightCache uses Redis when REDIS_URL is set and reachable, and an
// in-process LRU otherwise. The returned close func is never nil.
func newHighlightCache(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*rendering.Cache, func() error) {
	noop := func() error { return nil }
	memory := func() (*rendering.Cache, func() error) {
		return rendering.NewCache(rendering.NewMemoryStore(cfg.HighlightCacheSize, time.Duration(cfg.HighlightCacheTTL)*time.Second), log, m), noop
	}
	if cfg.RedisURL == "" {
		return memory()
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("invalid REDIS_URL, using in-memory highlight cache", "error", err)
		return memory()
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, using in-memory highlight cache", "error", err)
		_ = client.Close()
		return memory()
	}

	ttl := time.Duration(cfg.HighlightCacheTTL) * time.Second
	log.Info("using redis highlight cache", "addr", opts.Addr, "ttl", ttl)
	return rendering.NewCache(rendering.NewRedisStore(client, ttl), log, m), client.Close
}

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// loadRecord reads a KeywordRecord JSON file.
func loadRecord(path string) (*types.KeywordRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword record %s: %w", path, err)
	}
	var rec types.KeywordRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse keyword record JSON: %w", err)
	}
	return &rec, nil
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output JSON: %w", err)
	}
	return writeOutput(w, path, append(data, '\n'))
}
