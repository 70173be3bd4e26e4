package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	err := FromError(sql.ErrConnDone)

	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	notFound := Clone(ErrNotFound, "tutoring not found")

	err := FromError(notFound)

	assert.Same(t, notFound, err)
	assert.Equal(t, "tutoring not found", err.Message)
}

func TestClonedSentinelMatchesOriginal(t *testing.T) {
	cloned := Clone(ErrForbidden, "only the tutor can delete this tutoring")

	assert.True(t, errors.Is(cloned, ErrForbidden))
	assert.False(t, errors.Is(cloned, ErrNotFound))
	assert.Equal(t, "forbidden", ErrForbidden.Message)
}

func TestNilErrorHelpers(t *testing.T) {
	var e *Error

	assert.Equal(t, "<nil>", e.Error())
	assert.Nil(t, e.Unwrap())
	assert.Nil(t, Clone(nil, "x"))
	assert.Nil(t, FromError(nil))
}
