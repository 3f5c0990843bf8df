package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("load slots: %w", Clone(ErrNotFound, "slot not found"))

	appErr := FromError(wrapped)
	assert.Equal(t, ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "slot not found", appErr.Message)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrValidation, "days must be weekdays")
	assert.Equal(t, "days must be weekdays", clone.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
}

func TestWrapUnwraps(t *testing.T) {
	root := errors.New("connection refused")
	err := Wrap(root, ErrInternal.Code, ErrInternal.Status, "failed to load assignments")
	assert.ErrorIs(t, err, root)
	assert.Equal(t, "failed to load assignments: connection refused", err.Error())
}
