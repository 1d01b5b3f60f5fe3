package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/keyword-blog/internal/types"
)

// Blog column values set while and after a post is generated.
const (
	RewriteProcessing = "processing"
	RewriteCompleted  = "completed"

	ContentTypeKeywordResearch = "keyword_research"
	ContentTypeContent         = "content"
)

// Tx holds the writes of one generation attempt.
type Tx struct {
	tx pgx.Tx
}

// DraftBlog is the placeholder row written before generation finishes.
type DraftBlog struct {
	Title   string
	Slug    string
	Content string
	Excerpt string
	BlogFor string
}

// GetKeywordRecord reads a record inside the transaction.
func (t *Tx) GetKeywordRecord(ctx context.Context, id uuid.UUID) (*types.KeywordRecord, error) {
	return getKeywordRecord(ctx, t.tx, id)
}

// EnsureDraftBlog returns existing when it names a stored blog, and otherwise
// inserts draft and returns its ID.
func (t *Tx) EnsureDraftBlog(ctx context.Context, existing *uuid.UUID, draft DraftBlog) (uuid.UUID, error) {
	if existing != nil && *existing != uuid.Nil {
		var id uuid.UUID
		err := t.tx.QueryRow(ctx, `SELECT id FROM blogs WHERE id = $1`, *existing).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("failed to look up blog: %w", err)
		}
	}

	var id uuid.UUID
	err := t.tx.QueryRow(ctx,
		`INSERT INTO blogs (title, slug, content, excerpt, status, rewrite, content_type, blog_for)
		 VALUES ($1, $2, $3, $4, 'draft', $5, $6, $7)
		 RETURNING id`,
		draft.Title, draft.Slug, draft.Content, draft.Excerpt,
		RewriteProcessing, ContentTypeKeywordResearch, draft.BlogFor,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, blogSlugConstraint) {
			return uuid.Nil, ErrSlugTaken
		}
		return uuid.Nil, fmt.Errorf("failed to create draft blog: %w", err)
	}
	return id, nil
}

// SlugExists reports whether a blog other than excludeID uses slug.
func (t *Tx) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	return slugExists(ctx, t.tx, slug, excludeID)
}

// ClaimSlug writes slug to the blog inside a savepoint, so a uniqueness
// violation rolls back only this write. It returns ErrSlugTaken when another
// blog holds the slug.
func (t *Tx) ClaimSlug(ctx context.Context, blogID uuid.UUID, slug string) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to open savepoint: %w", err)
	}

	tag, err := sp.Exec(ctx,
		`UPDATE blogs SET slug = $1, updated_at = NOW() WHERE id = $2`,
		slug, blogID,
	)
	if err != nil {
		_ = sp.Rollback(ctx)
		if isUniqueViolation(err, blogSlugConstraint) {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to claim slug: %w", err)
	}
	if tag.RowsAffected() == 0 {
		_ = sp.Rollback(ctx)
		return ErrBlogNotFound
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

// SaveGeneratedBlog writes the generated document to the blog row.
func (t *Tx) SaveGeneratedBlog(ctx context.Context, blogID uuid.UUID, doc *types.FinalDocument, blogFor string) error {
	keywordsJSON, err := json.Marshal(orEmpty(doc.SEOKeywords))
	if err != nil {
		return fmt.Errorf("failed to marshal seo keywords: %w", err)
	}

	tag, err := t.tx.Exec(ctx,
		`UPDATE blogs
		 SET title = $1, slug = $2, content = $3, excerpt = $4, seo_title = $5,
		     seo_description = $6, seo_keywords = $7, rewrite = $8, status = 'draft',
		     content_type = $9, blog_for = $10, updated_at = NOW()
		 WHERE id = $11`,
		doc.Title, doc.Slug, doc.Content, doc.Excerpt, doc.SEOTitle,
		doc.SEODescription, keywordsJSON, RewriteCompleted,
		ContentTypeContent, blogFor, blogID,
	)
	if err != nil {
		if isUniqueViolation(err, blogSlugConstraint) {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to save generated blog: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBlogNotFound
	}
	return nil
}

// MarkBlogGenerated links the record to its blog and sets the generated flag.
func (t *Tx) MarkBlogGenerated(ctx context.Context, recordID, blogID uuid.UUID) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE keyword_research SET blog_generated = TRUE, blog_id = $1, updated_at = NOW() WHERE id = $2`,
		blogID, recordID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark blog generated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrKeywordRecordNotFound
	}
	return nil
}
