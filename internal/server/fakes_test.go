package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/keyword-blog/internal/db"
	"github.com/jonathan/keyword-blog/internal/generation"
	"github.com/jonathan/keyword-blog/internal/types"
)

// memStore is an in-memory Store.
type memStore struct {
	mu       sync.Mutex
	records  map[uuid.UUID]*types.KeywordRecord
	blogs    map[uuid.UUID]*types.Blog
	prompts  map[string]*types.SystemPrompt
	pingErr  error
	listOpts db.ListOptions
	blogOpts db.BlogListOptions
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[uuid.UUID]*types.KeywordRecord),
		blogs:   make(map[uuid.UUID]*types.Blog),
		prompts: make(map[string]*types.SystemPrompt),
	}
}

func (m *memStore) addRecord(rec types.KeywordRecord) *types.KeywordRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	m.records[rec.ID] = &rec
	return &rec
}

func (m *memStore) addBlog(blog types.Blog) *types.Blog {
	m.mu.Lock()
	defer m.mu.Unlock()
	if blog.ID == uuid.Nil {
		blog.ID = uuid.New()
	}
	m.blogs[blog.ID] = &blog
	return &blog
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) ListKeywordRecords(_ context.Context, opts db.ListOptions) (*db.KeywordRecordPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listOpts = opts
	page := &db.KeywordRecordPage{Items: []db.KeywordRecordSummary{}, Page: opts.Page, PerPage: opts.PerPage}
	for _, rec := range m.records {
		if opts.BlogGenerated != nil && rec.BlogGenerated != *opts.BlogGenerated {
			continue
		}
		page.Items = append(page.Items, db.KeywordRecordSummary{ID: rec.ID, Keyword: rec.Keyword, BlogGenerated: rec.BlogGenerated})
	}
	page.Total = len(page.Items)
	return page, nil
}

func (m *memStore) GetKeywordRecord(_ context.Context, id uuid.UUID) (*types.KeywordRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, db.ErrKeywordRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memStore) GetKeywordRecordByBlog(_ context.Context, blogID uuid.UUID) (*types.KeywordRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.BlogID != nil && *rec.BlogID == blogID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, db.ErrKeywordRecordNotFound
}

func (m *memStore) SaveCustomKeywords(_ context.Context, id uuid.UUID, custom *types.CustomKeywords) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return db.ErrKeywordRecordNotFound
	}
	rec.Custom = custom
	return nil
}

func (m *memStore) SetBlogGenerated(_ context.Context, id uuid.UUID, generated bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return db.ErrKeywordRecordNotFound
	}
	rec.BlogGenerated = generated
	return nil
}

func (m *memStore) DeleteKeywordRecord(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return db.ErrKeywordRecordNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memStore) GetBlog(_ context.Context, id uuid.UUID) (*types.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blog, ok := m.blogs[id]
	if !ok {
		return nil, db.ErrBlogNotFound
	}
	cp := *blog
	return &cp, nil
}

func (m *memStore) UpdateBlogSlug(_ context.Context, id uuid.UUID, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for otherID, other := range m.blogs {
		if otherID != id && other.Slug == slug {
			return db.ErrSlugTaken
		}
	}
	blog, ok := m.blogs[id]
	if !ok {
		return db.ErrBlogNotFound
	}
	blog.Slug = slug
	return nil
}

func (m *memStore) ListBlogs(_ context.Context, opts db.BlogListOptions) (*db.BlogPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blogOpts = opts
	page := &db.BlogPage{Items: []types.Blog{}, Page: opts.Page, PerPage: opts.PerPage}
	for _, blog := range m.blogs {
		if opts.Status != "" && blog.Status != opts.Status {
			continue
		}
		if opts.BlogFor != "" && blog.BlogFor != opts.BlogFor {
			continue
		}
		page.Items = append(page.Items, *blog)
	}
	page.Total = len(page.Items)
	return page, nil
}

func (m *memStore) UpdateBlogStatus(_ context.Context, id uuid.UUID, status types.BlogStatus) (*types.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blog, ok := m.blogs[id]
	if !ok {
		return nil, db.ErrBlogNotFound
	}
	blog.Status = status
	blog.ScheduledPublish = nil
	blog.PublishedAt = nil
	if status == types.BlogStatusPublished {
		now := time.Now()
		blog.PublishedAt = &now
	}
	cp := *blog
	return &cp, nil
}

func (m *memStore) ScheduleBlog(_ context.Context, id uuid.UUID, at time.Time) (*types.Blog, error) {
	if !at.After(time.Now()) {
		return nil, db.ErrScheduleInPast
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	blog, ok := m.blogs[id]
	if !ok {
		return nil, db.ErrBlogNotFound
	}
	blog.Status = types.BlogStatusScheduled
	blog.ScheduledPublish = &at
	blog.PublishedAt = nil
	cp := *blog
	return &cp, nil
}

func (m *memStore) DeleteBlog(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blogs[id]; !ok {
		return db.ErrBlogNotFound
	}
	delete(m.blogs, id)
	for _, rec := range m.records {
		if rec.BlogID != nil && *rec.BlogID == id {
			rec.BlogID = nil
			rec.BlogGenerated = false
		}
	}
	return nil
}

func (m *memStore) GetSystemPrompt(_ context.Context, promptType, promptFor string) (*types.SystemPrompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sp, ok := m.prompts[promptType+"/"+promptFor]
	if !ok {
		return nil, db.ErrSystemPromptNotFound
	}
	cp := *sp
	return &cp, nil
}

func (m *memStore) UpsertSystemPrompt(_ context.Context, sp types.SystemPrompt) (*types.SystemPrompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sp.UpdatedAt = time.Now()
	m.prompts[sp.Type+"/"+sp.PromptFor] = &sp
	cp := sp
	return &cp, nil
}

// stubGenerator returns a fixed result or error and records the request.
type stubGenerator struct {
	res  *generation.Result
	err  error
	last generation.Request
}

func (g *stubGenerator) Generate(_ context.Context, req generation.Request) (*generation.Result, error) {
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return g.res, nil
}
