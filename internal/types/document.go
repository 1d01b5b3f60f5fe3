package types

import (
	"time"

	"github.com/google/uuid"
)

// CandidateDocument is the decoded and completed output of one generation attempt.
type CandidateDocument struct {
	Title          string   `json:"title"`
	SEOTitle       string   `json:"seoTitle"`
	SEODescription string   `json:"seoDescription"`
	SEOKeywords    []string `json:"seoKeywords"`
	Excerpt        string   `json:"excerpt"`
	Content        string   `json:"content"`
	SlugHint       string   `json:"slugHint,omitempty"`
}

// FinalDocument is a CandidateDocument with an allocated slug.
type FinalDocument struct {
	CandidateDocument
	Slug string `json:"slug"`
}

// BlogStatus is the publication state of a stored blog post.
type BlogStatus string

// Blog status values
const (
	BlogStatusDraft     BlogStatus = "draft"
	BlogStatusPublished BlogStatus = "published"
	BlogStatusScheduled BlogStatus = "scheduled"
)

// Blog audience values, derived from the prompt target.
const (
	BlogForCustomer        = "customer"
	BlogForServiceProvider = "service_provider"
)

// Blog is a persisted content document.
type Blog struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Content        string     `json:"content"`
	Excerpt        string     `json:"excerpt"`
	SEOTitle       string     `json:"seo_title"`
	SEODescription string     `json:"seo_description"`
	SEOKeywords    []string   `json:"seo_keywords"`
	Status         BlogStatus `json:"status"`
	Rewrite        string     `json:"rewrite"`
	BlogFor        string     `json:"blog_for"`
	// ScheduledPublish is set while Status is scheduled.
	ScheduledPublish *time.Time `json:"scheduled_publish,omitempty"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
