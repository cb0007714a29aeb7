package repository_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/tollgate/pkg/repository"
)

func TestSanitizeArgs(t *testing.T) {
	got := repository.SanitizeArgs([]any{
		"user@example.com",
		strings.Repeat("x", 60),
		"reset-token-value",
		"pending",
		[]string{"a", "b"},
		map[string]int{"a": 1},
		[]byte("raw"),
		42,
		nil,
	})

	assert.Equal(t, []any{
		"[SANITIZED_STRING_0]",
		"[SANITIZED_STRING_1]",
		"[SANITIZED_STRING_2]",
		"pending",
		"[ARRAY_2_ITEMS]",
		"[OBJECT_1_KEYS]",
		"[BYTES_3]",
		42,
		nil,
	}, got)
}

func TestLogObserverLevels(t *testing.T) {
	tests := []struct {
		name        string
		op          repository.Operation
		development bool
		want        string
	}{
		{"failure", repository.Operation{Err: errors.New("boom")}, false, "level=ERROR msg=\"database operation failed\""},
		{"very slow", repository.Operation{Duration: 6 * time.Second}, false, "level=ERROR msg=\"very slow database operation\""},
		{"slow", repository.Operation{Duration: 3 * time.Second}, false, "level=WARN msg=\"slow database operation\""},
		{"over a second", repository.Operation{Duration: 1500 * time.Millisecond}, false, "level=WARN"},
		{"development", repository.Operation{Duration: 700 * time.Millisecond}, true, "level=DEBUG"},
		{"quiet", repository.Operation{Duration: 700 * time.Millisecond}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			tt.op.Table = "accounts"
			tt.op.Name = "find"
			tt.op.Args = []any{"a@example.com"}
			repository.NewLogObserver(logger, tt.development).Observe(context.Background(), tt.op)

			if tt.want == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.want)
			assert.NotContains(t, buf.String(), "a@example.com")
		})
	}
}
