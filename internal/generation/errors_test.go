package generation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/keyword-blog/internal/completion"
	"github.com/jonathan/keyword-blog/internal/db"
	"github.com/jonathan/keyword-blog/internal/llm"
	"github.com/jonathan/keyword-blog/internal/slug"
)

func TestUpstreamError(t *testing.T) {
	err := &UpstreamError{Model: "gemini-2.5-flash", Cause: llm.ErrEmptyResponse}
	assert.Equal(t, "generation service call failed (gemini-2.5-flash): empty response from generation service", err.Error())
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)

	bare := &UpstreamError{Cause: errors.New("timeout")}
	assert.Equal(t, "generation service call failed: timeout", bare.Error())
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "missing record", err: fmt.Errorf("load: %w", db.ErrKeywordRecordNotFound), want: MsgRecordNotFound},
		{name: "upstream", err: &UpstreamError{Cause: errors.New("500")}, want: MsgUpstream},
		{name: "upstream timeout", err: &UpstreamError{Cause: context.DeadlineExceeded}, want: MsgUpstream},
		{name: "incomplete", err: &completion.IncompleteDocumentError{Missing: []string{"content"}}, want: MsgIncomplete},
		{name: "slug conflict", err: fmt.Errorf("allocate: %w", slug.ErrConflict), want: MsgSlugUnavailable},
		{name: "canceled", err: fmt.Errorf("allocate: %w", context.Canceled), want: MsgCanceled},
		{name: "other", err: errors.New("disk full"), want: MsgGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
