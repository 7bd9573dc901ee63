package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("task belongs to another user")
	ErrDuplicate = errors.New("duplicate key")
)

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
