package slug

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/keyword-blog/internal/logger"
	"github.com/jonathan/keyword-blog/internal/metrics"
)

// ErrConflict is returned by a ClaimFunc when the slug was taken between the
// existence check and the write.
var ErrConflict = errors.New("slug already claimed")

// Checker reports whether a slug is used by any post other than excludeID.
type Checker interface {
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)

// SlugExists calls f.
func (f CheckerFunc) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	return f(ctx, slug, excludeID)
}

// ClaimFunc writes slug for the post being allocated. It returns ErrConflict
// when a uniqueness constraint rejected the write.
type ClaimFunc func(ctx context.Context, slug string) error

// Request describes the post a slug is allocated for.
type Request struct {
	Title       string
	Description string
	Location    string
	// Hint is used as the base when the title yields no usable slug.
	Hint      string
	ExcludeID uuid.UUID
}

// Step names the candidate rule that produced a slug.
type Step string

const (
	StepTitle           Step = "title"
	StepLocation        Step = "location"
	StepTitleWord       Step = "title_word"
	StepDescriptionWord Step = "description_word"
	StepWordPair        Step = "word_pair"
	StepContentType     Step = "content_type"
	StepNumbered        Step = "numbered"
	StepRandom          Step = "random"
)

// maxNumbered is the highest numeric suffix tried after the content type step.
const maxNumbered = 9

// Candidate is one slug to try.
type Candidate struct {
	Slug string
	Step Step
}

// Result is the outcome of an allocation.
type Result struct {
	Slug    string
	Step    Step
	Lookups int
	// Exhausted is set when every deterministic candidate was taken and Slug
	// carries a random suffix that was never looked up.
	Exhausted bool
}

// Candidates returns the deterministic candidate sequence for req, without
// duplicates:
//  1. the title slug
//  2. title + location
//  3. title + location + each significant title word
//  4. title + location + each significant description word
//  5. title + location + title word + description word
//  6. title + location + content type
//  7. the content type candidate with suffixes -2 to -9
func Candidates(req Request) []Candidate {
	out, _ := plan(req)
	return out
}

// plan returns the candidates and the content type stem used for suffixes.
func plan(req Request) ([]Candidate, string) {
	base := Clean(req.Title)
	if base == "" {
		base = Clean(req.Hint)
	}
	if base == "" {
		base = ContentTypeFallback
	}

	loc := Clean(req.Location)
	titleWords := SignificantWords(req.Title)
	descWords := SignificantWords(req.Description)

	var out []Candidate
	seen := make(map[string]bool)
	add := func(s string, step Step) {
		s = Normalize(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, Candidate{Slug: s, Step: step})
	}

	add(base, StepTitle)
	add(extend(base, loc), StepLocation)
	for _, w := range titleWords {
		add(extend(base, loc, w), StepTitleWord)
	}
	for _, w := range descWords {
		add(extend(base, loc, w), StepDescriptionWord)
	}
	for _, tw := range titleWords {
		for _, dw := range descWords {
			add(extend(base, loc, tw, dw), StepWordPair)
		}
	}
	typed := Normalize(extend(base, loc, ContentType(req.Title, req.Description)))
	add(typed, StepContentType)
	for n := 2; n <= maxNumbered; n++ {
		add(withSuffix(typed, strconv.Itoa(n)), StepNumbered)
	}
	return out, typed
}

// extend appends the non-empty parts to stem, shortening the stem so the
// parts survive the MaxLength cap.
func extend(stem string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return stem
	}
	return withSuffix(stem, strings.Join(kept, "-"))
}

// maxSuffix bounds how much of a slug an appended suffix may take.
const maxSuffix = MaxLength / 2

// withSuffix appends "-suffix" and keeps the result within MaxLength by
// shortening the stem rather than the suffix.
func withSuffix(stem, suffix string) string {
	if len(suffix) > maxSuffix {
		suffix = strings.TrimRight(suffix[:maxSuffix], "-")
	}
	if room := MaxLength - len(suffix) - 1; len(stem) > room {
		stem = strings.TrimRight(stem[:room], "-")
	}
	if stem == "" {
		return suffix
	}
	return stem + "-" + suffix
}

// Allocator picks the first candidate slug that no other post uses.
type Allocator struct {
	checker Checker
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewAllocator creates an Allocator. log and m may be nil.
func NewAllocator(checker Checker, log *logger.Logger, m *metrics.Metrics) *Allocator {
	return &Allocator{checker: checker, log: logger.OrNop(log), metrics: m}
}

// Allocate checks candidates in order and returns the first one the checker
// reports free. When every candidate is taken it returns an unchecked slug with
// a random suffix and Exhausted set.
func (a *Allocator) Allocate(ctx context.Context, req Request) (Result, error) {
	return a.Claim(ctx, req, nil)
}

// Claim is Allocate followed by a write. For each candidate the checker
// reports free, claim is called; ErrConflict moves on to the next candidate
// and any other error aborts. A nil claim accepts the first free candidate.
func (a *Allocator) Claim(ctx context.Context, req Request, claim ClaimFunc) (Result, error) {
	candidates, stem := plan(req)
	lookups := 0

	for _, c := range candidates {
		taken, err := a.inUse(ctx, c.Slug, req.ExcludeID)
		lookups++
		if err != nil {
			return Result{}, err
		}
		if taken {
			continue
		}

		if claim != nil {
			if err := claim(ctx, c.Slug); err != nil {
				if errors.Is(err, ErrConflict) {
					a.log.Info("slug claimed concurrently, trying next candidate", "slug", c.Slug)
					continue
				}
				return Result{}, fmt.Errorf("failed to claim slug %q: %w", c.Slug, err)
			}
		}

		result := Result{Slug: c.Slug, Step: c.Step, Lookups: lookups}
		a.metrics.ObserveSlugAllocation(lookups, false)
		a.log.Debug("slug allocated", "slug", result.Slug, "step", result.Step, "lookups", lookups)
		return result, nil
	}

	for attempt := 0; attempt < 3; attempt++ {
		s := withSuffix(stem, randomSuffix())
		if claim != nil {
			if err := claim(ctx, s); err != nil {
				if errors.Is(err, ErrConflict) {
					continue
				}
				return Result{}, fmt.Errorf("failed to claim slug %q: %w", s, err)
			}
		}
		a.metrics.ObserveSlugAllocation(lookups, true)
		a.log.Warn("slug candidates exhausted, using random suffix", "slug", s, "lookups", lookups)
		return Result{Slug: s, Step: StepRandom, Lookups: lookups, Exhausted: true}, nil
	}
	return Result{}, fmt.Errorf("failed to claim slug after %d candidates: %w", lookups, ErrConflict)
}

// inUse reports whether slug is taken. Checker errors count as taken, except
// for context cancellation which aborts the allocation.
func (a *Allocator) inUse(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("slug allocation canceled: %w", err)
	}
	exists, err := a.checker.SlugExists(ctx, slug, excludeID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, fmt.Errorf("slug allocation canceled: %w", err)
		}
		a.log.Warn("slug existence check failed, treating as taken", "slug", slug, "error", err)
		return true, nil
	}
	return exists, nil
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
