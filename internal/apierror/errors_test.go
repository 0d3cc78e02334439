package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       error
		wantKind Kind
		wantCode int
	}{
		{name: "email required", in: NewErrEmailRequired(), wantKind: KindValidation, wantCode: http.StatusBadRequest},
		{name: "invalid code", in: NewErrInvalidCode(), wantKind: KindInvalidCode, wantCode: http.StatusBadRequest},
		{name: "email taken", in: NewErrEmailIsTaken("a@x.com"), wantKind: KindConflict, wantCode: http.StatusConflict},
		{name: "bad credentials", in: NewErrInvalidCredentials(), wantKind: KindUnauthorized, wantCode: http.StatusUnauthorized},
		{name: "revoked", in: NewErrSessionRevoked(), wantKind: KindUnauthorized, wantCode: http.StatusUnauthorized},
		{name: "not found", in: NewErrNotFound("avatar"), wantKind: KindNotFound, wantCode: http.StatusNotFound},
		{name: "wrapped", in: fmt.Errorf("outer: %w", NewErrMissingAuthorizationToken()), wantKind: KindUnauthorized, wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantKind, KindOf(tt.in))
			apiErr, ok := As(tt.in)
			assert.True(t, ok)
			assert.Equal(t, tt.wantCode, apiErr.HTTPCode)
		})
	}
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	_, ok := As(errors.New("boom"))
	assert.False(t, ok)
}

func TestInternalServerError_HidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := NewErrInternalServerError(cause)

	assert.Equal(t, "internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
