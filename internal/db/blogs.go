package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/keyword-blog/internal/types"
)

// -----------------------------------------------------------------------------
// Blog Methods
// -----------------------------------------------------------------------------

const blogColumns = `id, title, slug, content, excerpt, seo_title, seo_description, seo_keywords,
	status, rewrite, blog_for, scheduled_publish, published_at, created_at, updated_at`

// GetBlog retrieves a blog post by ID.
func (db *DB) GetBlog(ctx context.Context, id uuid.UUID) (*types.Blog, error) {
	return getBlog(ctx, db.pool, id)
}

func getBlog(ctx context.Context, q querier, id uuid.UUID) (*types.Blog, error) {
	b, err := scanBlog(q.QueryRow(ctx, `SELECT `+blogColumns+` FROM blogs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}
	return b, nil
}

func scanBlog(row pgx.Row) (*types.Blog, error) {
	var b types.Blog
	var status string
	var keywordsJSON []byte

	if err := row.Scan(&b.ID, &b.Title, &b.Slug, &b.Content, &b.Excerpt, &b.SEOTitle, &b.SEODescription,
		&keywordsJSON, &status, &b.Rewrite, &b.BlogFor, &b.ScheduledPublish, &b.PublishedAt,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}

	b.Status = types.BlogStatus(status)
	b.SEOKeywords = []string{}
	if len(keywordsJSON) > 0 {
		_ = json.Unmarshal(keywordsJSON, &b.SEOKeywords)
	}
	return &b, nil
}

// BlogListOptions filters and pages blog posts.
type BlogListOptions struct {
	Page    int
	PerPage int
	Status  types.BlogStatus
	BlogFor string
	// Search matches title, slug or content, case-insensitively.
	Search string
}

// BlogPage is one page of blog posts, newest first.
type BlogPage struct {
	Items      []types.Blog `json:"items"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
	TotalPages int          `json:"total_pages"`
}

// ListBlogs returns a page of blog posts matching opts.
func (db *DB) ListBlogs(ctx context.Context, opts BlogListOptions) (*BlogPage, error) {
	paging := ListOptions{Page: opts.Page, PerPage: opts.PerPage}.normalized()

	const where = `WHERE ($1 = '' OR status = $1)
		   AND ($2 = '' OR blog_for = $2)
		   AND ($3 = '' OR title ILIKE '%' || $3 || '%' OR slug ILIKE '%' || $3 || '%' OR content ILIKE '%' || $3 || '%')`
	args := []any{string(opts.Status), opts.BlogFor, strings.TrimSpace(opts.Search)}

	var total int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM blogs `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count blogs: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+blogColumns+` FROM blogs `+where+`
		 ORDER BY created_at DESC
		 LIMIT $4 OFFSET $5`,
		append(args, paging.PerPage, (paging.Page-1)*paging.PerPage)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	defer rows.Close()

	items := []types.Blog{}
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		items = append(items, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blogs: %w", err)
	}

	return &BlogPage{
		Items:      items,
		Total:      total,
		Page:       paging.Page,
		PerPage:    paging.PerPage,
		TotalPages: totalPages(total, paging.PerPage),
	}, nil
}

// UpdateBlogStatus moves a blog post to published or draft. Publishing
// stamps published_at; either way any pending schedule is cleared.
func (db *DB) UpdateBlogStatus(ctx context.Context, id uuid.UUID, status types.BlogStatus) (*types.Blog, error) {
	if status != types.BlogStatusPublished && status != types.BlogStatusDraft {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBlogStatus, status)
	}

	b, err := scanBlog(db.pool.QueryRow(ctx,
		`UPDATE blogs
		 SET status = $2,
		     published_at = CASE WHEN $2 = 'published' THEN NOW() ELSE NULL END,
		     scheduled_publish = NULL,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+blogColumns,
		id, string(status),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("failed to update blog status: %w", err)
	}
	return b, nil
}

// ScheduleBlog marks a blog post for publication at a future time.
// ErrScheduleInPast is returned when at is not after now.
func (db *DB) ScheduleBlog(ctx context.Context, id uuid.UUID, at time.Time) (*types.Blog, error) {
	if !at.After(time.Now()) {
		return nil, ErrScheduleInPast
	}

	b, err := scanBlog(db.pool.QueryRow(ctx,
		`UPDATE blogs
		 SET status = 'scheduled', scheduled_publish = $2, published_at = NULL, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+blogColumns,
		id, at,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("failed to schedule blog: %w", err)
	}
	return b, nil
}

// DeleteBlog removes a blog post and resets the keyword research record it
// was generated from.
func (db *DB) DeleteBlog(ctx context.Context, id uuid.UUID) error {
	return db.InTx(ctx, func(tx *Tx) error {
		if _, err := tx.tx.Exec(ctx,
			`UPDATE keyword_research SET blog_id = NULL, blog_generated = FALSE, updated_at = NOW()
			 WHERE blog_id = $1`,
			id,
		); err != nil {
			return fmt.Errorf("failed to unlink keyword records: %w", err)
		}

		tag, err := tx.tx.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete blog: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrBlogNotFound
		}
		return nil
	})
}

// SlugExists reports whether a blog other than excludeID uses slug.
func (db *DB) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	return slugExists(ctx, db.pool, slug, excludeID)
}

func slugExists(ctx context.Context, q querier, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM blogs WHERE slug = $1 AND id <> $2)`,
		slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug %q: %w", slug, err)
	}
	return exists, nil
}

// UpdateBlogSlug sets a manually chosen slug. The slug must already be
// normalized. ErrSlugTaken is returned when another blog uses it.
func (db *DB) UpdateBlogSlug(ctx context.Context, id uuid.UUID, slug string) error {
	taken, err := db.SlugExists(ctx, slug, id)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlugTaken
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE blogs SET slug = $1, updated_at = NOW() WHERE id = $2`,
		slug, id,
	)
	if err != nil {
		if isUniqueViolation(err, blogSlugConstraint) {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to update blog slug: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBlogNotFound
	}
	return nil
}
