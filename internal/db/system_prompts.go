package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/keyword-blog/internal/types"
)

// -----------------------------------------------------------------------------
// System Prompt Methods
// -----------------------------------------------------------------------------

// GetSystemPrompt retrieves the prompt stored for a (type, prompt_for) pair.
func (db *DB) GetSystemPrompt(ctx context.Context, promptType, promptFor string) (*types.SystemPrompt, error) {
	var sp types.SystemPrompt
	err := db.pool.QueryRow(ctx,
		`SELECT type, prompt_for, prompt, location, company_name, company_details,
		        company_about, keyword_guideline, updated_at
		 FROM system_prompts WHERE type = $1 AND prompt_for = $2`,
		promptType, promptFor,
	).Scan(&sp.Type, &sp.PromptFor, &sp.Prompt, &sp.Location, &sp.CompanyName,
		&sp.CompanyDetails, &sp.CompanyAbout, &sp.KeywordGuideline, &sp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSystemPromptNotFound
		}
		return nil, fmt.Errorf("failed to get system prompt: %w", err)
	}
	return &sp, nil
}

// UpsertSystemPrompt creates or replaces the prompt for sp's pair.
func (db *DB) UpsertSystemPrompt(ctx context.Context, sp types.SystemPrompt) (*types.SystemPrompt, error) {
	out := sp
	err := db.pool.QueryRow(ctx,
		`INSERT INTO system_prompts (type, prompt_for, prompt, location, company_name,
		                             company_details, company_about, keyword_guideline)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (type, prompt_for) DO UPDATE SET
		     prompt = EXCLUDED.prompt,
		     location = EXCLUDED.location,
		     company_name = EXCLUDED.company_name,
		     company_details = EXCLUDED.company_details,
		     company_about = EXCLUDED.company_about,
		     keyword_guideline = EXCLUDED.keyword_guideline,
		     updated_at = NOW()
		 RETURNING updated_at`,
		sp.Type, sp.PromptFor, sp.Prompt, sp.Location, sp.CompanyName,
		sp.CompanyDetails, sp.CompanyAbout, sp.KeywordGuideline,
	).Scan(&out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert system prompt: %w", err)
	}
	return &out, nil
}
