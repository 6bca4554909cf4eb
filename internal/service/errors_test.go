package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prperemyshlev/reply-assistant/internal/repository"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(NewValidationError("bad")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", NewNotFoundError("missing", nil))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestFromRepository(t *testing.T) {
	err := fromRepository("ad context not found", fmt.Errorf("x: %w", repository.ErrNotFound))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = fromRepository("prompt template not found", repository.ErrInvalidReference)
	assert.Equal(t, KindNotFound, KindOf(err))

	boom := errors.New("connection refused")
	err = fromRepository("failed to list", boom)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.ErrorIs(t, err, boom)
}

func TestErrorMessage(t *testing.T) {
	err := NewExternalServiceError("instagram request failed", errors.New("status 500"))
	assert.Equal(t, "instagram request failed: status 500", err.Error())
	assert.Equal(t, "bad", NewValidationError("bad").Error())
}
