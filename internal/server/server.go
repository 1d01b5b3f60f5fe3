// Package server provides the HTTP REST API for keyword research records,
// blog generation and keyword highlighting.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/keyword-blog/internal/db"
	"github.com/jonathan/keyword-blog/internal/generation"
	"github.com/jonathan/keyword-blog/internal/logger"
	"github.com/jonathan/keyword-blog/internal/metrics"
	"github.com/jonathan/keyword-blog/internal/rendering"
	"github.com/jonathan/keyword-blog/internal/server/middleware"
	"github.com/jonathan/keyword-blog/internal/server/ratelimit"
	"github.com/jonathan/keyword-blog/internal/types"
)

// maxBodyBytes bounds request bodies; blog content is the largest payload.
const maxBodyBytes = 5 << 20

// Store is the persistence the handlers need. *db.DB implements it.
type Store interface {
	Ping(ctx context.Context) error
	ListKeywordRecords(ctx context.Context, opts db.ListOptions) (*db.KeywordRecordPage, error)
	GetKeywordRecord(ctx context.Context, id uuid.UUID) (*types.KeywordRecord, error)
	GetKeywordRecordByBlog(ctx context.Context, blogID uuid.UUID) (*types.KeywordRecord, error)
	SaveCustomKeywords(ctx context.Context, id uuid.UUID, custom *types.CustomKeywords) error
	SetBlogGenerated(ctx context.Context, id uuid.UUID, generated bool) error
	DeleteKeywordRecord(ctx context.Context, id uuid.UUID) error
	GetBlog(ctx context.Context, id uuid.UUID) (*types.Blog, error)
	UpdateBlogSlug(ctx context.Context, id uuid.UUID, slug string) error
	ListBlogs(ctx context.Context, opts db.BlogListOptions) (*db.BlogPage, error)
	UpdateBlogStatus(ctx context.Context, id uuid.UUID, status types.BlogStatus) (*types.Blog, error)
	ScheduleBlog(ctx context.Context, id uuid.UUID, at time.Time) (*types.Blog, error)
	DeleteBlog(ctx context.Context, id uuid.UUID) error
	GetSystemPrompt(ctx context.Context, promptType, promptFor string) (*types.SystemPrompt, error)
	UpsertSystemPrompt(ctx context.Context, sp types.SystemPrompt) (*types.SystemPrompt, error)
}

// Generator runs the blog generation pipeline. *generation.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Result, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       Store
	generator   Generator
	highlights  *rendering.Cache
	metrics     *metrics.Metrics
	log         *logger.Logger
	rateLimiter *ratelimit.Limiter
	origin      string
}

// Config holds server configuration
type Config struct {
	Port          int
	AllowedOrigin string
	RateLimit     *ratelimit.Config
	// WriteTimeout must cover a full generation call.
	WriteTimeout time.Duration
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Store      Store
	Generator  Generator
	Highlights *rendering.Cache
	Metrics    *metrics.Metrics
	Logger     *logger.Logger
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	highlights := deps.Highlights
	if highlights == nil {
		highlights = rendering.NewCache(rendering.NewMemoryStore(0, 0), deps.Logger, deps.Metrics)
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 300 * time.Second
	}

	s := &Server{
		store:       deps.Store,
		generator:   deps.Generator,
		highlights:  highlights,
		metrics:     deps.Metrics,
		log:         logger.OrNop(deps.Logger),
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		origin:      cfg.AllowedOrigin,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Keyword research
	mux.HandleFunc("GET /keyword-research", s.handleListKeywordResearch)
	mux.HandleFunc("GET /keyword-research/{id}", s.handleGetKeywordResearch)
	mux.HandleFunc("DELETE /keyword-research/{id}", s.handleDeleteKeywordResearch)
	mux.HandleFunc("PUT /keyword-research/{id}/custom-keywords", s.handleSaveCustomKeywords)
	mux.HandleFunc("PUT /keyword-research/{id}/blog-generated", s.handleSetBlogGenerated)
	mux.HandleFunc("POST /keyword-research/{id}/generate", s.handleGenerate)

	// Blogs
	mux.HandleFunc("GET /blogs", s.handleListBlogs)
	mux.HandleFunc("GET /blogs/{id}", s.handleGetBlog)
	mux.HandleFunc("DELETE /blogs/{id}", s.handleDeleteBlog)
	mux.HandleFunc("POST /blogs/{id}/publish", s.handlePublishBlog)
	mux.HandleFunc("POST /blogs/{id}/schedule", s.handleScheduleBlog)
	mux.HandleFunc("GET /blogs/{id}/match-score", s.handleMatchScore)
	mux.HandleFunc("PUT /blogs/{id}/slug", s.handleUpdateSlug)

	// Highlighting
	mux.HandleFunc("POST /highlight", s.handleHighlight)
	mux.HandleFunc("POST /highlight/strip", s.handleStripHighlights)

	// System prompts
	mux.HandleFunc("GET /system-prompts/{type}/{for}", s.handleGetSystemPrompt)
	mux.HandleFunc("PUT /system-prompts/{type}/{for}", s.handlePutSystemPrompt)

	return middleware.Chain(mux,
		middleware.Recover(s.log),
		middleware.RequestID(),
		middleware.Logging(s.log),
		middleware.CORS(s.origin),
		s.withRateLimit,
	)
}

// Start listens until ctx is canceled and then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.rateLimiter.Stop()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.rateLimiter.Stop()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth reports liveness and, when a store is configured, database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.log.Warn("health check database ping failed", "error", err)
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

// parseQueryInt parses an integer query parameter, using defaultValue when
// it is absent or invalid.
func parseQueryInt(r *http.Request, key string, defaultValue int) int {
	val, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || val < 0 {
		return defaultValue
	}
	return val
}

// extractClientID extracts the client identifier (IP address) from the request.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		retry := max(1, int(info.RetryAfter.Seconds()))
		response["retry_after"] = retry
		w.Header().Set("Retry-After", strconv.Itoa(retry))
	}

	s.log.Warn("rate limit exceeded", "client", extractClientID(r), "path", r.URL.Path, "limit", info.Limit)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
