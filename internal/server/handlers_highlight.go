package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/keyword-blog/internal/rendering"
	"github.com/jonathan/keyword-blog/internal/types"
)

// HighlightResponse is the highlighted content and the annotations found in it.
type HighlightResponse struct {
	Content     string                      `json:"content"`
	Annotations []rendering.Annotation      `json:"annotations"`
	Summary     rendering.AnnotationSummary `json:"summary"`
}

// handleHighlight wraps keyword occurrences in annotation spans. Terms come
// from the referenced record, from custom_keywords, or both.
func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req types.HighlightRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.handleError(w, r, &ErrValidation{Message: err.Error()})
		return
	}

	var rec types.KeywordRecord
	if req.KeywordID != uuid.Nil {
		stored, err := s.store.GetKeywordRecord(r.Context(), req.KeywordID)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		rec = *stored
	}

	phrases, words := rendering.Terms(rec, req.Custom)
	highlighted, err := s.highlights.Highlight(r.Context(), req.Content, phrases, words)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	annotations, err := rendering.Annotations(highlighted)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, HighlightResponse{
		Content:     highlighted,
		Annotations: annotations,
		Summary:     rendering.Summarize(annotations),
	})
}

// handleStripHighlights removes annotation spans, keeping their text.
func (s *Server) handleStripHighlights(w http.ResponseWriter, r *http.Request) {
	var req types.StripRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.handleError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"content": rendering.StripHighlights(req.Content),
	})
}
