package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors returned by the store.
var (
	ErrKeywordRecordNotFound = errors.New("keyword research record not found")
	ErrBlogNotFound          = errors.New("blog not found")
	ErrSystemPromptNotFound  = errors.New("system prompt not found")
	ErrSlugTaken             = errors.New("slug already in use")
	ErrScheduleInPast        = errors.New("scheduled publish time must be in the future")
	ErrInvalidBlogStatus     = errors.New("invalid blog status")
)

const (
	uniqueViolation    = "23505"
	blogSlugConstraint = "blogs_slug_key"
)

// isUniqueViolation reports whether err is a unique violation on constraint.
// An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
