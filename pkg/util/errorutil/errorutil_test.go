package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain error passes through", NewConflict("taken", nil), CodeConflict, http.StatusConflict},
		{"wrapped domain error", fmt.Errorf("ctx: %w", NewForbidden("nope")), CodeForbidden, http.StatusForbidden},
		{"pgx no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"unknown error", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := ToDomainError(tt.err)
			require.NotNil(t, de)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.status, de.HTTPStatus)
		})
	}
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestInvalidReference(t *testing.T) {
	err := NewInvalidReference("department", int64(9))
	assert.EqualError(t, err, "invalid department")
	assert.True(t, IsKind(err, CodeInvalidReference))
	assert.False(t, IsKind(err, CodeNotFound))
	assert.Equal(t, int64(9), ToDomainError(err).Details["department_id"])
}

func TestInternalErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
