package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrInvalidReference is returned when a referenced record does not exist
	ErrInvalidReference = errors.New("referenced record does not exist")
)

const (
	pqForeignKeyViolation       = "23503"
	pqInvalidTextRepresentation = "22P02"
)

func isPQCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

// isMissing reports errors meaning the looked-up row cannot exist,
// including a malformed uuid in the lookup key.
func isMissing(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || isPQCode(err, pqInvalidTextRepresentation)
}
