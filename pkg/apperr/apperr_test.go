package apperr

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	cause := errors.New("connection refused")

	withCause := New(5031, "failed to queue", http.StatusServiceUnavailable, cause)
	assert.Equal(t, "failed to queue: connection refused", withCause.Error())

	withoutCause := New(4001, "limit must be 1-1000", http.StatusBadRequest, nil)
	assert.Equal(t, "limit must be 1-1000", withoutCause.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := New(5001, "failed to process", http.StatusInternalServerError, cause)

	assert.ErrorIs(t, err, cause)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, 5001, "whatever", http.StatusInternalServerError))

	cause := errors.New("boom")
	err := Wrap(cause, 5032, "failed to get", http.StatusServiceUnavailable)
	assert.Equal(t, 5032, err.Code)
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus)
	assert.ErrorIs(t, err, cause)
}

func TestMapError(t *testing.T) {
	assert.Nil(t, MapError("ingestor", nil, 5001, MsgProcessFailed, http.StatusInternalServerError))

	cause := errors.New("boom")
	err := MapError("ingestor", cause, 5001, MsgProcessFailed, http.StatusInternalServerError)
	assert.Equal(t, "ingestor failed to process", err.Message)
	assert.ErrorIs(t, err, cause)
}
