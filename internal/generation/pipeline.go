// Package generation runs a keyword research record through the generation
// service, the response decoder, field completion and slug allocation, and
// stores the result.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/keyword-blog/internal/completion"
	"github.com/jonathan/keyword-blog/internal/db"
	"github.com/jonathan/keyword-blog/internal/llm"
	"github.com/jonathan/keyword-blog/internal/logger"
	"github.com/jonathan/keyword-blog/internal/metrics"
	"github.com/jonathan/keyword-blog/internal/parsing"
	"github.com/jonathan/keyword-blog/internal/schemas"
	"github.com/jonathan/keyword-blog/internal/slug"
	"github.com/jonathan/keyword-blog/internal/types"
)

// DefaultLocation is used when neither the record nor the system prompt
// names a location.
const DefaultLocation = "Australia"

// Options configures a Generator.
type Options struct {
	Completion      completion.Options
	DefaultLocation string
	Tier            llm.ModelTier
	// Timeout bounds the generation service call. Zero means no extra bound.
	Timeout time.Duration
}

// Request selects a record and the system prompt used for it.
type Request struct {
	KeywordID  uuid.UUID
	TargetType string
	TargetFor  string
}

// Result describes a stored blog post and how it was produced.
type Result struct {
	BlogID        uuid.UUID           `json:"blog_id"`
	KeywordID     uuid.UUID           `json:"keyword_id"`
	Document      types.FinalDocument `json:"document"`
	Model         string              `json:"model"`
	Strategy      parsing.Strategy    `json:"decoder_strategy"`
	Synthesized   []string            `json:"synthesized_fields"`
	SlugStep      slug.Step           `json:"slug_step"`
	SlugLookups   int                 `json:"slug_lookups"`
	SlugExhausted bool                `json:"slug_exhausted"`
}

// Degraded reports whether any field or the slug is a fallback.
func (r *Result) Degraded() bool {
	return len(r.Synthesized) > 0 || r.SlugExhausted
}

// Generator runs the full pipeline.
type Generator struct {
	store   Store
	client  llm.Client
	log     *logger.Logger
	metrics *metrics.Metrics
	opts    Options
}

// NewGenerator creates a Generator. log and m may be nil.
func NewGenerator(store Store, client llm.Client, log *logger.Logger, m *metrics.Metrics, opts Options) *Generator {
	if opts.DefaultLocation == "" {
		opts.DefaultLocation = DefaultLocation
	}
	if opts.Tier == "" {
		opts.Tier = llm.TierStandard
	}
	return &Generator{store: store, client: client, log: logger.OrNop(log), metrics: m, opts: opts}
}

// Generate builds the prompt, calls the generation service outside any
// transaction, decodes and completes the response, then allocates a slug
// and persists the post in one transaction. Any error leaves no writes.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.TargetType == "" {
		req.TargetType = types.TargetTypeBlogContent
	}
	if req.TargetFor == "" {
		req.TargetFor = types.TargetForCustomer
	}
	log := g.log.With("keyword_id", req.KeywordID, "target_for", req.TargetFor)

	rec, err := g.store.GetKeywordRecord(ctx, req.KeywordID)
	if err != nil {
		g.metrics.ObserveGeneration(metrics.OutcomeStorage)
		return nil, fmt.Errorf("failed to load keyword record: %w", err)
	}

	sp, err := g.store.GetSystemPrompt(ctx, req.TargetType, req.TargetFor)
	if err != nil && !errors.Is(err, db.ErrSystemPromptNotFound) {
		g.metrics.ObserveGeneration(metrics.OutcomeStorage)
		return nil, fmt.Errorf("failed to load system prompt: %w", err)
	}

	location := ResolveLocation(*rec, sp, g.opts.DefaultLocation)
	resolved := *rec
	resolved.Location = location

	prompt, err := BuildPrompt(PromptInput{
		Record:          resolved,
		Location:        location,
		TargetFor:       req.TargetFor,
		SystemPrompt:    sp,
		CallToActionURL: g.completionOptions().CallToActionURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	model := g.client.GetModel(g.opts.Tier)
	log.Info("calling generation service", "model", model, "prompt_length", len(prompt))
	raw, err := g.callService(ctx, prompt)
	if err != nil {
		g.metrics.ObserveGeneration(metrics.OutcomeUpstream)
		log.Error("generation service call failed", "model", model, "error", err)
		return nil, &UpstreamError{Model: model, Cause: err}
	}

	candidate, decoded, report, err := decodeAndComplete(raw, resolved, g.completionOptions())
	g.metrics.ObserveDecoderStrategy(string(decoded.Strategy))
	g.metrics.ObserveSynthesizedFields(report.Synthesized)
	if err != nil {
		g.metrics.ObserveGeneration(metrics.OutcomeIncomplete)
		log.Error("generated document is incomplete", "error", err)
		return nil, err
	}
	if report.Degraded() {
		log.Warn("generated document needed fallback fields",
			"strategy", decoded.Strategy, "synthesized", report.Synthesized)
	}

	result := &Result{
		KeywordID:   rec.ID,
		Model:       model,
		Strategy:    decoded.Strategy,
		Synthesized: report.Synthesized,
	}
	blogFor := BlogFor(req.TargetFor)

	err = g.store.InTx(ctx, func(tx Tx) error {
		blogID, err := tx.EnsureDraftBlog(ctx, rec.BlogID, draftBlog(resolved, blogFor))
		if err != nil {
			return fmt.Errorf("failed to prepare draft blog: %w", err)
		}

		allocator := slug.NewAllocator(tx, log, g.metrics)
		allocation, err := allocator.Claim(ctx, slugRequest(candidate, location, blogID), claimer(tx, blogID))
		if err != nil {
			return fmt.Errorf("failed to allocate slug: %w", err)
		}

		final := types.FinalDocument{CandidateDocument: *candidate, Slug: allocation.Slug}
		if err := schemas.ValidateDocument(schemas.FinalDocumentSchema, final); err != nil {
			var ve *schemas.ValidationError
			if errors.As(err, &ve) {
				return &completion.IncompleteDocumentError{Missing: ve.Fields(), Cause: err}
			}
			return err
		}

		if err := tx.SaveGeneratedBlog(ctx, blogID, &final, blogFor); err != nil {
			return err
		}
		if err := tx.MarkBlogGenerated(ctx, rec.ID, blogID); err != nil {
			return err
		}

		result.BlogID = blogID
		result.Document = final
		result.SlugStep = allocation.Step
		result.SlugLookups = allocation.Lookups
		result.SlugExhausted = allocation.Exhausted
		return nil
	})
	if err != nil {
		var incomplete *completion.IncompleteDocumentError
		if errors.As(err, &incomplete) {
			g.metrics.ObserveGeneration(metrics.OutcomeIncomplete)
		} else {
			g.metrics.ObserveGeneration(metrics.OutcomeStorage)
		}
		log.Error("failed to store generated blog", "error", err)
		return nil, err
	}

	g.metrics.ObserveGeneration(metrics.OutcomeSuccess)
	log.Info("blog generated", "blog_id", result.BlogID, "slug", result.Document.Slug,
		"strategy", result.Strategy, "slug_step", result.SlugStep)
	return result, nil
}

func (g *Generator) completionOptions() completion.Options {
	opts := g.opts.Completion
	if opts.DefaultLocation == "" {
		opts.DefaultLocation = g.opts.DefaultLocation
	}
	return opts
}

func (g *Generator) callService(ctx context.Context, prompt string) (string, error) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}
	raw, err := g.client.GenerateContent(ctx, prompt, g.opts.Tier)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", llm.ErrEmptyResponse
	}
	return raw, nil
}

// DecodeAndComplete decodes a raw generation response and fills every
// missing field. The error is only returned when the completed document
// still fails the document invariant.
func DecodeAndComplete(raw string, rec types.KeywordRecord, opts completion.Options) (*types.CandidateDocument, parsing.Strategy, error) {
	doc, decoded, _, err := decodeAndComplete(raw, rec, opts)
	return doc, decoded.Strategy, err
}

func decodeAndComplete(raw string, rec types.KeywordRecord, opts completion.Options) (*types.CandidateDocument, parsing.Result, completion.Report, error) {
	decoded := parsing.Decode(raw)
	doc, report, err := completion.Complete(decoded.Fields, rec, opts)
	return doc, decoded, report, err
}

// AllocateSlug picks a unique slug for candidate. excludeID is the post
// being written, so its own slug never counts as a collision.
func AllocateSlug(ctx context.Context, checker slug.Checker, candidate *types.CandidateDocument, rec types.KeywordRecord, excludeID uuid.UUID) (slug.Result, error) {
	return slug.NewAllocator(checker, nil, nil).Allocate(ctx, slugRequest(candidate, rec.Location, excludeID))
}

func slugRequest(candidate *types.CandidateDocument, location string, excludeID uuid.UUID) slug.Request {
	return slug.Request{
		Title:       candidate.Title,
		Description: candidate.SEODescription,
		Location:    location,
		Hint:        candidate.SlugHint,
		ExcludeID:   excludeID,
	}
}

// claimer writes the slug to the blog and reports unique violations as
// slug.ErrConflict so the allocator moves on.
func claimer(tx Tx, blogID uuid.UUID) slug.ClaimFunc {
	return func(ctx context.Context, s string) error {
		err := tx.ClaimSlug(ctx, blogID, s)
		if errors.Is(err, db.ErrSlugTaken) {
			return slug.ErrConflict
		}
		return err
	}
}

// draftBlog is the placeholder row written before the generated content.
func draftBlog(rec types.KeywordRecord, blogFor string) db.DraftBlog {
	content, _ := json.Marshal(map[string]any{
		"keyword":            rec.Keyword,
		"location":           rec.Location,
		"extracted_keywords": rec.Extracted,
	})
	base := slug.Clean(rec.Keyword)
	if base == "" {
		base = "blog"
	}
	return db.DraftBlog{
		Title:   "Processing blog for: " + rec.Keyword,
		Slug:    base + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10),
		Content: string(content),
		Excerpt: "Processing blog for keyword: " + rec.Keyword,
		BlogFor: blogFor,
	}
}
