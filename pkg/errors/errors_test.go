package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrNotFound, "summary not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "summary not found", err.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(fmt.Errorf("dial tcp: refused"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)

	wrapped := fmt.Errorf("item 2: %w", ErrScoreOverFull)
	assert.Equal(t, ErrScoreOverFull.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrScoreNegative))
	assert.True(t, IsValidation(Wrap(errors.New("bad"), ErrValidation.Code, ErrValidation.Status, "invalid")))
	assert.False(t, IsValidation(ErrNotFound))
	assert.False(t, IsValidation(nil))
}
