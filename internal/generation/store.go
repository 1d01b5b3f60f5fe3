package generation

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/keyword-blog/internal/db"
	"github.com/jonathan/keyword-blog/internal/types"
)

// Store reads the inputs of a generation attempt and runs its writes in one
// transaction.
type Store interface {
	GetKeywordRecord(ctx context.Context, id uuid.UUID) (*types.KeywordRecord, error)
	GetSystemPrompt(ctx context.Context, promptType, promptFor string) (*types.SystemPrompt, error)
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional write set of one attempt.
type Tx interface {
	EnsureDraftBlog(ctx context.Context, existing *uuid.UUID, draft db.DraftBlog) (uuid.UUID, error)
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	ClaimSlug(ctx context.Context, blogID uuid.UUID, slug string) error
	SaveGeneratedBlog(ctx context.Context, blogID uuid.UUID, doc *types.FinalDocument, blogFor string) error
	MarkBlogGenerated(ctx context.Context, recordID, blogID uuid.UUID) error
}

// NewPostgresStore adapts a db.DB to Store.
func NewPostgresStore(database *db.DB) Store {
	return &pgStore{db: database}
}

type pgStore struct {
	db *db.DB
}

func (s *pgStore) GetKeywordRecord(ctx context.Context, id uuid.UUID) (*types.KeywordRecord, error) {
	return s.db.GetKeywordRecord(ctx, id)
}

func (s *pgStore) GetSystemPrompt(ctx context.Context, promptType, promptFor string) (*types.SystemPrompt, error) {
	return s.db.GetSystemPrompt(ctx, promptType, promptFor)
}

func (s *pgStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.InTx(ctx, func(tx *db.Tx) error {
		return fn(tx)
	})
}
