package server

import (
	"net/http"
	"strings"

	"github.com/jonathan/keyword-blog/internal/types"
)

// promptKey reads and normalizes the {type}/{for} path values.
func promptKey(r *http.Request) (promptType, promptFor string, err error) {
	promptType = types.NormalizePromptType(strings.TrimSpace(r.PathValue("type")))
	promptFor = strings.TrimSpace(r.PathValue("for"))
	switch {
	case promptType == "":
		return "", "", &ErrValidation{Field: "type", Message: "is required"}
	case promptFor == "":
		return "", "", &ErrValidation{Field: "for", Message: "is required"}
	case len(promptType) > 100 || len(promptFor) > 100:
		return "", "", &ErrValidation{Message: "prompt type and target must be at most 100 characters"}
	}
	return promptType, promptFor, nil
}

// handleGetSystemPrompt returns the stored prompt and company details for a pair.
func (s *Server) handleGetSystemPrompt(w http.ResponseWriter, r *http.Request) {
	promptType, promptFor, err := promptKey(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	sp, err := s.store.GetSystemPrompt(r.Context(), promptType, promptFor)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sp)
}

// handlePutSystemPrompt creates or replaces the prompt for a pair.
func (s *Server) handlePutSystemPrompt(w http.ResponseWriter, r *http.Request) {
	promptType, promptFor, err := promptKey(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var req types.SystemPromptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.handleError(w, r, err)
		return
	}

	saved, err := s.store.UpsertSystemPrompt(r.Context(), req.ToSystemPrompt(promptType, promptFor))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, saved)
}
