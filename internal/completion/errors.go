package completion

import (
	"fmt"
	"strings"
)

// IncompleteDocumentError reports required fields that were still empty after
// completion. It is fatal for the generation attempt.
type IncompleteDocumentError struct {
	Missing []string
	Cause   error
}

func (e *IncompleteDocumentError) Error() string {
	return fmt.Sprintf("incomplete document: missing %s", strings.Join(e.Missing, ", "))
}

func (e *IncompleteDocumentError) Unwrap() error {
	return e.Cause
}
