package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/tollgate/pkg/apperr"
)

var errAccountMissing = apperr.NotFound("AccountNotFound", "account not found")

func TestIsMatchesByName(t *testing.T) {
	specific := apperr.NotFound("AccountNotFound", "Account user@example.com not found")
	wrapped := fmt.Errorf("login: %w", specific)

	assert.ErrorIs(t, wrapped, errAccountMissing)
	assert.NotErrorIs(t, wrapped, apperr.Conflict("AccountAlreadyExists", "exists"))
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"app error", apperr.Conflict("X", "x"), http.StatusConflict},
		{"wrapped app error", fmt.Errorf("ctx: %w", apperr.Unauthorized("X", "x")), http.StatusUnauthorized},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.StatusOf(tt.err))
		})
	}
}

func TestMessageOfHidesInternalCause(t *testing.T) {
	err := apperr.Internal(errors.New("connection refused on 10.0.0.4"))
	assert.Equal(t, "Internal server error", apperr.MessageOf(err))
	assert.Equal(t, "Internal server error", apperr.MessageOf(errors.New("raw")))
}

func TestWrapKeepsIdentity(t *testing.T) {
	cause := errors.New("cause")
	err := errAccountMissing.Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, errAccountMissing)
	assert.Nil(t, errAccountMissing.Err)
}

func TestNameOf(t *testing.T) {
	assert.Equal(t, "AccountNotFound", apperr.NameOf(errAccountMissing))
	assert.Equal(t, "Internal Server Error", apperr.NameOf(errors.New("x")))
}
