package service_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/tollgate/pkg/apperr"
	"github.com/JaimeStill/tollgate/pkg/result"
	"github.com/JaimeStill/tollgate/pkg/service"
)

func TestFuncExecute(t *testing.T) {
	double := service.Func[int, int](func(_ context.Context, n int) result.Result[int] {
		return result.Success(n * 2)
	})

	v, err := double.Execute(context.Background(), 4).Unwrap()
	assert.NoError(t, err)
	assert.Equal(t, 8, v)
}

func TestLoggedFailureLevels(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level string
	}{
		{"client error", apperr.NotFound("AccountNotFound", "missing"), "level=WARN"},
		{"server error", errors.New("db down"), "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			failing := service.Func[string, string](func(context.Context, string) result.Result[string] {
				return result.Fail[string](tt.err)
			})

			res := service.Logged("accounts.find", logger, failing).Execute(context.Background(), "x")

			assert.ErrorIs(t, res.Err(), tt.err)
			assert.Contains(t, buf.String(), tt.level)
			assert.Contains(t, buf.String(), "service=accounts.find")
		})
	}
}

func TestLoggedSuccessIsSilent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ok := service.Func[string, string](func(_ context.Context, s string) result.Result[string] {
		return result.Success(s)
	})

	service.Logged("echo", logger, ok).Execute(context.Background(), "x")
	assert.Empty(t, buf.String())
}
