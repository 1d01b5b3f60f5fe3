package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/jonathan/keyword-blog/internal/db"
	"github.com/jonathan/keyword-blog/internal/generation"
	"github.com/jonathan/keyword-blog/internal/ranking"
	"github.com/jonathan/keyword-blog/internal/types"
)

// handleListKeywordResearch lists keyword research records, newest first.
func (s *Server) handleListKeywordResearch(w http.ResponseWriter, r *http.Request) {
	opts := db.ListOptions{
		Page:    parseQueryInt(r, "page", 1),
		PerPage: parseQueryInt(r, "per_page", db.DefaultPerPage),
	}
	if raw := r.URL.Query().Get("blog_generated"); raw != "" {
		generated, err := strconv.ParseBool(raw)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "blog_generated must be true or false")
			return
		}
		opts.BlogGenerated = &generated
	}

	page, err := s.store.ListKeywordRecords(r.Context(), opts)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, page)
}

// handleGetKeywordResearch returns a record with every phrase quality score filled in.
func (s *Server) handleGetKeywordResearch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid keyword research ID")
		return
	}

	rec, err := s.store.GetKeywordRecord(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	rec.Extracted.Phrases = ranking.EnrichQualityScores(rec.Extracted.Phrases)
	s.jsonResponse(w, http.StatusOK, rec)
}

// handleDeleteKeywordResearch deletes a record. Its blog is kept.
func (s *Server) handleDeleteKeywordResearch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid keyword research ID")
		return
	}

	if err := s.store.DeleteKeywordRecord(r.Context(), id); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSaveCustomKeywords stores the curated keyword subset of a record.
func (s *Server) handleSaveCustomKeywords(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid keyword research ID")
		return
	}

	var req types.CustomKeywordsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	custom, err := req.Normalize()
	if err != nil {
		s.handleError(w, r, &ErrValidation{Field: "custom_keywords", Message: err.Error()})
		return
	}

	if err := s.store.SaveCustomKeywords(r.Context(), id, custom); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"id":              id,
		"custom_keywords": custom,
	})
}

// handleSetBlogGenerated sets or clears the generated flag of a record.
func (s *Server) handleSetBlogGenerated(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid keyword research ID")
		return
	}

	var req types.BlogGeneratedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.store.SetBlogGenerated(r.Context(), id, *req.BlogGenerated); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"id":             id,
		"blog_generated": *req.BlogGenerated,
	})
}

// handleGenerate runs the generation pipeline for a record. The body is
// optional; target_type and target_for select the system prompt.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid keyword research ID")
		return
	}

	var req types.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.handleError(w, r, err)
		return
	}

	res, err := s.generator.Generate(r.Context(), generation.Request{
		KeywordID:  id,
		TargetType: req.TargetType,
		TargetFor:  req.TargetFor,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"message":  "Blog generated successfully",
		"degraded": res.Degraded(),
		"result":   res,
	})
}
