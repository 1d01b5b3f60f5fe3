package server

import (
	"net/http"

	"github.com/jonathan/keyword-blog/internal/db"
	"github.com/jonathan/keyword-blog/internal/ranking"
	"github.com/jonathan/keyword-blog/internal/slug"
	"github.com/jonathan/keyword-blog/internal/types"
)

// handleGetBlog returns a stored blog post.
func (s *Server) handleGetBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	blog, err := s.store.GetBlog(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, blog)
}

// handleMatchScore scores a blog post against the keyword research it was generated from.
func (s *Server) handleMatchScore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	blog, err := s.store.GetBlog(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	rec, err := s.store.GetKeywordRecordByBlog(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"blog_id":    blog.ID,
		"keyword_id": rec.ID,
		"keyword":    rec.Keyword,
		"score":      ranking.ScoreContentMatch(blog.Content, blog.Title, *rec),
	})
}

// handleUpdateSlug applies a manual slug. The slug is normalized first and
// must not be used by another blog.
func (s *Server) handleUpdateSlug(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	var req types.UpdateSlugRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.handleError(w, r, err)
		return
	}

	normalized := slug.Normalize(req.Slug)
	if normalized == "" {
		s.handleError(w, r, &ErrUnprocessable{Message: "Slug must contain at least one letter or digit."})
		return
	}

	if err := s.store.UpdateBlogSlug(r.Context(), id, normalized); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"id":   id,
		"slug": normalized,
	})
}

// handleListBlogs returns a page of blog posts, newest first.
func (s *Server) handleListBlogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := db.BlogListOptions{
		Page:    parseQueryInt(r, "page", 1),
		PerPage: parseQueryInt(r, "per_page", db.DefaultPerPage),
		Status:  types.BlogStatus(q.Get("status")),
		BlogFor: q.Get("blog_for"),
		Search:  q.Get("search"),
	}
	switch opts.Status {
	case "", types.BlogStatusDraft, types.BlogStatusPublished, types.BlogStatusScheduled:
	default:
		s.errorResponse(w, http.StatusBadRequest, "status must be draft, published or scheduled")
		return
	}

	page, err := s.store.ListBlogs(r.Context(), opts)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, page)
}

// handleDeleteBlog deletes a blog post and frees its keyword research record
// for another generation.
func (s *Server) handleDeleteBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	if err := s.store.DeleteBlog(r.Context(), id); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePublishBlog publishes a blog post or returns it to draft.
func (s *Server) handlePublishBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	var req types.PublishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.handleError(w, r, err)
		return
	}

	status := types.BlogStatusPublished
	if req.Action == types.PublishActionUnpublish {
		status = types.BlogStatusDraft
	}
	blog, err := s.store.UpdateBlogStatus(r.Context(), id, status)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, blog)
}

// handleScheduleBlog schedules, unschedules or immediately publishes a blog post.
func (s *Server) handleScheduleBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	var req types.ScheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.handleError(w, r, err)
		return
	}

	var (
		blog *types.Blog
		err  error
	)
	switch req.ScheduleAction() {
	case types.ScheduleActionUnschedule:
		blog, err = s.store.UpdateBlogStatus(r.Context(), id, types.BlogStatusDraft)
	case types.ScheduleActionPublishNow:
		blog, err = s.store.UpdateBlogStatus(r.Context(), id, types.BlogStatusPublished)
	default:
		if req.ScheduledPublish == nil {
			s.handleError(w, r, &ErrValidation{Field: "scheduled_publish", Message: "required when scheduling"})
			return
		}
		blog, err = s.store.ScheduleBlog(r.Context(), id, *req.ScheduledPublish)
	}
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, blog)
}
