//go:build integration

package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/keyword-blog/internal/types"
)

// getTestDB connects to TEST_DATABASE_URL and applies migrations.
func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	require.NoError(t, RunMigrations(dsn))

	db, err := Connect(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	return db
}

func createTestRecord(t *testing.T, db *DB, keyword string) *types.KeywordRecord {
	t.Helper()
	rec, err := db.CreateKeywordRecord(context.Background(), &types.KeywordRecord{
		Keyword:  keyword,
		Location: "Sydney",
		Extracted: types.ExtractedKeywords{
			SingleWords: []types.SingleWord{{Word: "solar", Frequency: 12}},
			Phrases:     []types.Phrase{{Phrase: "solar panels", Frequency: 4, InH2: true}},
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.pool.Exec(context.Background(), `DELETE FROM keyword_research WHERE id = $1`, rec.ID)
	})
	return rec
}

func createTestBlog(t *testing.T, db *DB, slug string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := db.InTx(context.Background(), func(tx *Tx) error {
		var err error
		id, err = tx.EnsureDraftBlog(context.Background(), nil, DraftBlog{
			Title: "Processing", Slug: slug, BlogFor: types.BlogForCustomer,
		})
		return err
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.pool.Exec(context.Background(), `DELETE FROM blogs WHERE id = $1`, id)
	})
	return id
}

func TestIntegration_KeywordRecord_CRUD(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	rec := createTestRecord(t, db, "solar panels "+uuid.NewString()[:8])

	got, err := db.GetKeywordRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Keyword, got.Keyword)
	assert.Equal(t, "Sydney", got.Location)
	require.Len(t, got.Extracted.SingleWords, 1)
	assert.Equal(t, 12, got.Extracted.SingleWords[0].Frequency)
	assert.Nil(t, got.Custom)

	custom := &types.CustomKeywords{SingleWords: []string{"roof"}, Phrases: []string{}}
	require.NoError(t, db.SaveCustomKeywords(ctx, rec.ID, custom))
	got, err = db.GetKeywordRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, custom, got.Custom)

	require.NoError(t, db.SetBlogGenerated(ctx, rec.ID, true))
	generated := true
	page, err := db.ListKeywordRecords(ctx, ListOptions{PerPage: 100, BlogGenerated: &generated})
	require.NoError(t, err)
	found := false
	for _, item := range page.Items {
		if item.ID == rec.ID {
			found = true
			assert.True(t, item.BlogGenerated)
		}
	}
	assert.True(t, found)

	require.NoError(t, db.DeleteKeywordRecord(ctx, rec.ID))
	_, err = db.GetKeywordRecord(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrKeywordRecordNotFound)
	assert.ErrorIs(t, db.DeleteKeywordRecord(ctx, rec.ID), ErrKeywordRecordNotFound)
}

func TestIntegration_SlugUniqueness(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	suffix := uuid.NewString()[:8]
	first := createTestBlog(t, db, "solar-guide-"+suffix)
	second := createTestBlog(t, db, "solar-guide-draft-"+suffix)

	exists, err := db.SlugExists(ctx, "solar-guide-"+suffix, second)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = db.SlugExists(ctx, "solar-guide-"+suffix, first)
	require.NoError(t, err)
	assert.False(t, exists, "own slug is excluded")

	err = db.UpdateBlogSlug(ctx, second, "solar-guide-"+suffix)
	assert.ErrorIs(t, err, ErrSlugTaken)

	err = db.UpdateBlogSlug(ctx, uuid.New(), "unused-"+suffix)
	assert.ErrorIs(t, err, ErrBlogNotFound)
}

func TestIntegration_ClaimSlugSavepoint(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	suffix := uuid.NewString()[:8]
	createTestBlog(t, db, "taken-"+suffix)
	rec := createTestRecord(t, db, "claim "+suffix)

	var blogID uuid.UUID
	err := db.InTx(ctx, func(tx *Tx) error {
		var err error
		blogID, err = tx.EnsureDraftBlog(ctx, nil, DraftBlog{
			Title: "Processing", Slug: "draft-" + suffix, BlogFor: types.BlogForCustomer,
		})
		if err != nil {
			return err
		}

		err = tx.ClaimSlug(ctx, blogID, "taken-"+suffix)
		if !errors.Is(err, ErrSlugTaken) {
			t.Errorf("ClaimSlug = %v, want ErrSlugTaken", err)
		}
		// The transaction is still usable after the failed claim.
		if err := tx.ClaimSlug(ctx, blogID, "free-"+suffix); err != nil {
			return err
		}

		doc := &types.FinalDocument{
			CandidateDocument: types.CandidateDocument{
				Title: "Solar Guide", SEOTitle: "Solar Guide", SEODescription: "desc",
				SEOKeywords: []string{"solar"}, Excerpt: "excerpt", Content: "<p>body</p>",
			},
			Slug: "free-" + suffix,
		}
		if err := tx.SaveGeneratedBlog(ctx, blogID, doc, types.BlogForCustomer); err != nil {
			return err
		}
		return tx.MarkBlogGenerated(ctx, rec.ID, blogID)
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.pool.Exec(context.Background(), `DELETE FROM blogs WHERE id = $1`, blogID)
	})

	blog, err := db.GetBlog(ctx, blogID)
	require.NoError(t, err)
	assert.Equal(t, "free-"+suffix, blog.Slug)
	assert.Equal(t, RewriteCompleted, blog.Rewrite)
	assert.Equal(t, []string{"solar"}, blog.SEOKeywords)

	got, err := db.GetKeywordRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.BlogGenerated)
	require.NotNil(t, got.BlogID)
	assert.Equal(t, blogID, *got.BlogID)

	byBlog, err := db.GetKeywordRecordByBlog(ctx, blogID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, byBlog.ID)

	_, err = db.GetKeywordRecordByBlog(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrKeywordRecordNotFound)
}

func TestIntegration_InTxRollsBack(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	slug := "rolled-back-" + uuid.NewString()[:8]
	boom := errors.New("boom")
	err := db.InTx(ctx, func(tx *Tx) error {
		if _, err := tx.EnsureDraftBlog(ctx, nil, DraftBlog{Title: "x", Slug: slug}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := db.SlugExists(ctx, slug, uuid.Nil)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIntegration_SystemPrompt_Upsert(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	promptFor := "test_" + uuid.NewString()[:8]
	t.Cleanup(func() {
		_, _ = db.pool.Exec(context.Background(), `DELETE FROM system_prompts WHERE prompt_for = $1`, promptFor)
	})

	_, err := db.GetSystemPrompt(ctx, types.TargetTypeBlogContent, promptFor)
	assert.ErrorIs(t, err, ErrSystemPromptNotFound)

	_, err = db.UpsertSystemPrompt(ctx, types.SystemPrompt{
		Type: types.TargetTypeBlogContent, PromptFor: promptFor, Prompt: "v1", CompanyName: "Acme",
	})
	require.NoError(t, err)
	_, err = db.UpsertSystemPrompt(ctx, types.SystemPrompt{
		Type: types.TargetTypeBlogContent, PromptFor: promptFor, Prompt: "v2", Location: "Perth",
	})
	require.NoError(t, err)

	sp, err := db.GetSystemPrompt(ctx, types.TargetTypeBlogContent, promptFor)
	require.NoError(t, err)
	assert.Equal(t, "v2", sp.Prompt)
	assert.Equal(t, "Perth", sp.Location)
	assert.Empty(t, sp.CompanyName)
}

func TestIntegration_BlogLifecycle(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	suffix := uuid.NewString()[:8]
	blogID := createTestBlog(t, db, "solar-lifecycle-"+suffix)
	rec := createTestRecord(t, db, "solar lifecycle "+suffix)
	require.NoError(t, db.InTx(ctx, func(tx *Tx) error {
		return tx.MarkBlogGenerated(ctx, rec.ID, blogID)
	}))

	b, err := db.UpdateBlogStatus(ctx, blogID, types.BlogStatusPublished)
	require.NoError(t, err)
	assert.Equal(t, types.BlogStatusPublished, b.Status)
	assert.NotNil(t, b.PublishedAt)

	_, err = db.ScheduleBlog(ctx, blogID, time.Now().Add(-time.Minute))
	assert.ErrorIs(t, err, ErrScheduleInPast)

	at := time.Now().Add(24 * time.Hour).Truncate(time.Microsecond)
	b, err = db.ScheduleBlog(ctx, blogID, at)
	require.NoError(t, err)
	assert.Equal(t, types.BlogStatusScheduled, b.Status)
	require.NotNil(t, b.ScheduledPublish)
	assert.True(t, at.Equal(*b.ScheduledPublish))
	assert.Nil(t, b.PublishedAt)

	page, err := db.ListBlogs(ctx, BlogListOptions{PerPage: 100, Status: types.BlogStatusScheduled, Search: "lifecycle-" + suffix})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, blogID, page.Items[0].ID)

	b, err = db.UpdateBlogStatus(ctx, blogID, types.BlogStatusDraft)
	require.NoError(t, err)
	assert.Nil(t, b.ScheduledPublish)
	assert.Nil(t, b.PublishedAt)

	_, err = db.UpdateBlogStatus(ctx, blogID, types.BlogStatusScheduled)
	assert.ErrorIs(t, err, ErrInvalidBlogStatus)
	_, err = db.UpdateBlogStatus(ctx, uuid.New(), types.BlogStatusDraft)
	assert.ErrorIs(t, err, ErrBlogNotFound)

	require.NoError(t, db.DeleteBlog(ctx, blogID))
	got, err := db.GetKeywordRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got.BlogID)
	assert.False(t, got.BlogGenerated)
	assert.ErrorIs(t, db.DeleteBlog(ctx, blogID), ErrBlogNotFound)
}
