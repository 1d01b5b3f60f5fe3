package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/keyword-blog/internal/types"
)

// -----------------------------------------------------------------------------
// Keyword Research Methods
// -----------------------------------------------------------------------------

// Pagination defaults for ListKeywordRecords.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ListOptions filters and pages keyword research records.
type ListOptions struct {
	Page          int
	PerPage       int
	BlogGenerated *bool
}

func (o ListOptions) normalized() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PerPage < 1 {
		o.PerPage = DefaultPerPage
	}
	if o.PerPage > MaxPerPage {
		o.PerPage = MaxPerPage
	}
	return o
}

// KeywordRecordSummary is a list row: the record plus its blog, when any.
type KeywordRecordSummary struct {
	ID            uuid.UUID  `json:"id"`
	Keyword       string     `json:"keyword"`
	Location      string     `json:"location"`
	BlogGenerated bool       `json:"blog_generated"`
	BlogID        *uuid.UUID `json:"blog_id,omitempty"`
	BlogTitle     *string    `json:"blog_title,omitempty"`
	BlogSlug      *string    `json:"blog_slug,omitempty"`
	BlogStatus    *string    `json:"blog_status,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// KeywordRecordPage is one page of ListKeywordRecords.
type KeywordRecordPage struct {
	Items      []KeywordRecordSummary `json:"items"`
	Total      int                    `json:"total"`
	Page       int                    `json:"current_page"`
	PerPage    int                    `json:"per_page"`
	TotalPages int                    `json:"total_pages"`
}

// CreateKeywordRecord inserts a keyword research record and returns it with
// its generated ID.
func (db *DB) CreateKeywordRecord(ctx context.Context, rec *types.KeywordRecord) (*types.KeywordRecord, error) {
	searchJSON, err := json.Marshal(orEmpty(rec.SearchResults))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search results: %w", err)
	}
	extractedJSON, err := json.Marshal(rec.Extracted)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extracted keywords: %w", err)
	}
	customJSON, err := marshalNullable(rec.Custom)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal custom keywords: %w", err)
	}

	out := *rec
	err = db.pool.QueryRow(ctx,
		`INSERT INTO keyword_research (keyword, location, search_results, extracted_keywords, custom_keywords)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		 RETURNING id, created_at`,
		rec.Keyword, rec.Location, searchJSON, extractedJSON, customJSON,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword record: %w", err)
	}
	return &out, nil
}

// GetKeywordRecord retrieves a keyword research record by ID.
func (db *DB) GetKeywordRecord(ctx context.Context, id uuid.UUID) (*types.KeywordRecord, error) {
	return getKeywordRecord(ctx, db.pool, id)
}

// GetKeywordRecordByBlog retrieves the keyword research record a blog was
// generated from.
func (db *DB) GetKeywordRecordByBlog(ctx context.Context, blogID uuid.UUID) (*types.KeywordRecord, error) {
	return scanKeywordRecord(db.pool.QueryRow(ctx,
		keywordRecordSelect+` WHERE blog_id = $1 ORDER BY created_at DESC LIMIT 1`, blogID))
}

const keywordRecordSelect = `SELECT id, keyword, location, search_results, extracted_keywords, custom_keywords,
	        blog_generated, blog_id, created_at
	 FROM keyword_research`

func getKeywordRecord(ctx context.Context, q querier, id uuid.UUID) (*types.KeywordRecord, error) {
	return scanKeywordRecord(q.QueryRow(ctx, keywordRecordSelect+` WHERE id = $1`, id))
}

func scanKeywordRecord(row pgx.Row) (*types.KeywordRecord, error) {
	var rec types.KeywordRecord
	var location *string
	var searchJSON, extractedJSON, customJSON []byte

	err := row.Scan(&rec.ID, &rec.Keyword, &location, &searchJSON, &extractedJSON, &customJSON,
		&rec.BlogGenerated, &rec.BlogID, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeywordRecordNotFound
		}
		return nil, fmt.Errorf("failed to get keyword record: %w", err)
	}

	if location != nil {
		rec.Location = *location
	}
	rec.SearchResults = decodeSearchResults(searchJSON)
	if len(extractedJSON) > 0 {
		// Malformed keyword JSON reads as an empty set.
		_ = json.Unmarshal(extractedJSON, &rec.Extracted)
	}
	if len(customJSON) > 0 && string(customJSON) != "null" {
		var custom types.CustomKeywords
		if err := json.Unmarshal(customJSON, &custom); err == nil {
			rec.Custom = &custom
		}
	}
	return &rec, nil
}

// decodeSearchResults accepts a bare array or an object with a "results" array.
func decodeSearchResults(data []byte) []types.SearchResult {
	if len(data) == 0 {
		return nil
	}
	var results []types.SearchResult
	if err := json.Unmarshal(data, &results); err == nil {
		return results
	}
	var wrapped struct {
		Results []types.SearchResult `json:"results"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		return wrapped.Results
	}
	return nil
}

// ListKeywordRecords returns one page of records, newest first.
func (db *DB) ListKeywordRecords(ctx context.Context, opts ListOptions) (*KeywordRecordPage, error) {
	opts = opts.normalized()

	var total int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM keyword_research
		 WHERE ($1::boolean IS NULL OR blog_generated = $1)`,
		opts.BlogGenerated,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count keyword records: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT kr.id, kr.keyword, COALESCE(kr.location, ''), kr.blog_generated, kr.blog_id,
		        b.title, b.slug, b.status, kr.created_at
		 FROM keyword_research kr
		 LEFT JOIN blogs b ON b.id = kr.blog_id
		 WHERE ($1::boolean IS NULL OR kr.blog_generated = $1)
		 ORDER BY kr.created_at DESC
		 LIMIT $2 OFFSET $3`,
		opts.BlogGenerated, opts.PerPage, (opts.Page-1)*opts.PerPage,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list keyword records: %w", err)
	}
	defer rows.Close()

	items := []KeywordRecordSummary{}
	for rows.Next() {
		var s KeywordRecordSummary
		if err := rows.Scan(&s.ID, &s.Keyword, &s.Location, &s.BlogGenerated, &s.BlogID,
			&s.BlogTitle, &s.BlogSlug, &s.BlogStatus, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan keyword record: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keyword records: %w", err)
	}

	return &KeywordRecordPage{
		Items:      items,
		Total:      total,
		Page:       opts.Page,
		PerPage:    opts.PerPage,
		TotalPages: totalPages(total, opts.PerPage),
	}, nil
}

func totalPages(total, perPage int) int {
	if total == 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// SaveCustomKeywords stores the curated keyword subset for a record.
func (db *DB) SaveCustomKeywords(ctx context.Context, id uuid.UUID, custom *types.CustomKeywords) error {
	customJSON, err := marshalNullable(custom)
	if err != nil {
		return fmt.Errorf("failed to marshal custom keywords: %w", err)
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE keyword_research SET custom_keywords = $1, updated_at = NOW() WHERE id = $2`,
		customJSON, id,
	)
	if err != nil {
		return fmt.Errorf("failed to save custom keywords: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrKeywordRecordNotFound
	}
	return nil
}

// SetBlogGenerated sets or clears the generated flag of a record.
func (db *DB) SetBlogGenerated(ctx context.Context, id uuid.UUID, generated bool) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE keyword_research SET blog_generated = $1, updated_at = NOW() WHERE id = $2`,
		generated, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update blog generated flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrKeywordRecordNotFound
	}
	return nil
}

// DeleteKeywordRecord removes a record. Its blog, if any, is kept.
func (db *DB) DeleteKeywordRecord(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM keyword_research WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete keyword record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrKeywordRecordNotFound
	}
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// marshalNullable returns nil for a nil pointer so the column stores NULL.
func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
