package errors

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestMarkAndStatus(t *testing.T) {
	err := NewError("filename missing").
		WithHint("No filename provided").
		Mark(ErrValidation)

	assert.True(t, IsValidation(err))
	assert.False(t, IsNotActionable(err))
	assert.Equal(t, http.StatusBadRequest, HTTPStatusFromErr(err))
	assert.Equal(t, "No filename provided", DisplayMessage(err))
}

func TestWrappedMarkSurvives(t *testing.T) {
	base := WithError(errors.New("boom")).Mark(ErrTransform)
	wrapped := errors.Wrap(base, "processing photo.png")

	assert.True(t, Is(wrapped, ErrTransform))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromErr(wrapped))
	assert.Contains(t, DisplayMessage(wrapped), "boom")
}
