package generation

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/keyword-blog/internal/db"
	"github.com/jonathan/keyword-blog/internal/llm"
	"github.com/jonathan/keyword-blog/internal/types"
)

type fakeClient struct {
	response string
	err      error
	prompts  []string
}

func (c *fakeClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.response, c.err
}

func (c *fakeClient) GetModel(llm.ModelTier) string { return "fake-model" }

func (c *fakeClient) Close() error { return nil }

type storedBlog struct {
	slug    string
	blogFor string
	doc     *types.FinalDocument
}

type fakeState struct {
	blogs   map[uuid.UUID]storedBlog
	records map[uuid.UUID]types.KeywordRecord
}

func (s fakeState) clone() fakeState {
	out := fakeState{
		blogs:   make(map[uuid.UUID]storedBlog, len(s.blogs)),
		records: make(map[uuid.UUID]types.KeywordRecord, len(s.records)),
	}
	for k, v := range s.blogs {
		out.blogs[k] = v
	}
	for k, v := range s.records {
		out.records[k] = v
	}
	return out
}

// fakeStore commits the transaction state only when fn succeeds.
type fakeStore struct {
	mu      sync.Mutex
	state   fakeState
	prompts map[string]*types.SystemPrompt

	// raceSlugs are reported free by SlugExists but rejected by ClaimSlug.
	raceSlugs map[string]bool
	markErr   error
	existsErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		state:     fakeState{blogs: map[uuid.UUID]storedBlog{}, records: map[uuid.UUID]types.KeywordRecord{}},
		prompts:   map[string]*types.SystemPrompt{},
		raceSlugs: map[string]bool{},
	}
}

func (s *fakeStore) addRecord(rec types.KeywordRecord) types.KeywordRecord {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	s.state.records[rec.ID] = rec
	return rec
}

func (s *fakeStore) addBlog(slug string) uuid.UUID {
	id := uuid.New()
	s.state.blogs[id] = storedBlog{slug: slug}
	return id
}

func (s *fakeStore) GetKeywordRecord(_ context.Context, id uuid.UUID) (*types.KeywordRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.state.records[id]
	if !ok {
		return nil, db.ErrKeywordRecordNotFound
	}
	return &rec, nil
}

func (s *fakeStore) GetSystemPrompt(_ context.Context, promptType, promptFor string) (*types.SystemPrompt, error) {
	if sp, ok := s.prompts[promptType+"/"+promptFor]; ok {
		return sp, nil
	}
	return nil, db.ErrSystemPromptNotFound
}

func (s *fakeStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &fakeTx{store: s, state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

type fakeTx struct {
	store *fakeStore
	state fakeState
}

func (t *fakeTx) EnsureDraftBlog(_ context.Context, existing *uuid.UUID, draft db.DraftBlog) (uuid.UUID, error) {
	if existing != nil {
		if _, ok := t.state.blogs[*existing]; ok {
			return *existing, nil
		}
	}
	id := uuid.New()
	t.state.blogs[id] = storedBlog{slug: draft.Slug, blogFor: draft.BlogFor}
	return id, nil
}

func (t *fakeTx) SlugExists(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	if t.store.existsErr != nil {
		return false, t.store.existsErr
	}
	for id, b := range t.state.blogs {
		if id != excludeID && b.slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) ClaimSlug(ctx context.Context, blogID uuid.UUID, slug string) error {
	if t.store.raceSlugs[slug] {
		return db.ErrSlugTaken
	}
	taken, _ := t.SlugExists(ctx, slug, blogID)
	if taken {
		return db.ErrSlugTaken
	}
	b, ok := t.state.blogs[blogID]
	if !ok {
		return db.ErrBlogNotFound
	}
	b.slug = slug
	t.state.blogs[blogID] = b
	return nil
}

func (t *fakeTx) SaveGeneratedBlog(_ context.Context, blogID uuid.UUID, doc *types.FinalDocument, blogFor string) error {
	b, ok := t.state.blogs[blogID]
	if !ok {
		return db.ErrBlogNotFound
	}
	b.slug = doc.Slug
	b.blogFor = blogFor
	b.doc = doc
	t.state.blogs[blogID] = b
	return nil
}

func (t *fakeTx) MarkBlogGenerated(_ context.Context, recordID, blogID uuid.UUID) error {
	if t.store.markErr != nil {
		return t.store.markErr
	}
	rec, ok := t.state.records[recordID]
	if !ok {
		return errors.New("record vanished")
	}
	rec.BlogGenerated = true
	rec.BlogID = &blogID
	t.state.records[recordID] = rec
	return nil
}
