package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/keyword-blog/internal/completion"
	"github.com/jonathan/keyword-blog/internal/db"
	"github.com/jonathan/keyword-blog/internal/slug"
)

// UpstreamError wraps a failed or empty call to the generation service.
type UpstreamError struct {
	Model string
	Cause error
}

func (e *UpstreamError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("generation service call failed (%s): %v", e.Model, e.Cause)
	}
	return fmt.Sprintf("generation service call failed: %v", e.Cause)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// User-facing messages, one per failure class.
const (
	MsgRecordNotFound   = "Keyword research data not found."
	MsgUpstream         = "The content generation service did not return a usable response. Please try again later."
	MsgIncomplete       = "The generated blog post was missing required fields and was not saved."
	MsgSlugUnavailable  = "Could not find an available URL slug for this blog post."
	MsgCanceled         = "Blog generation was canceled before it finished."
	MsgGenerationFailed = "Blog generation failed. Please try again."
)

// UserMessage maps a generation error to a stable, user-facing message.
func UserMessage(err error) string {
	var upstream *UpstreamError
	var incomplete *completion.IncompleteDocumentError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, db.ErrKeywordRecordNotFound):
		return MsgRecordNotFound
	case errors.As(err, &upstream):
		return MsgUpstream
	case errors.As(err, &incomplete):
		return MsgIncomplete
	case errors.Is(err, slug.ErrConflict):
		return MsgSlugUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return MsgCanceled
	default:
		return MsgGenerationFailed
	}
}
