package formatting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/tollgate/pkg/formatting"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"10MB", 10 << 20, true},
		{"512 kb", 512 << 10, true},
		{"1.5GB", 3 << 29, true},
		{"2048", 2048, true},
		{"", 0, false},
		{"ten MB", 0, false},
		{"5XB", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := formatting.ParseBytes(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", formatting.FormatBytes(0))
	assert.Equal(t, "1023 B", formatting.FormatBytes(1023))
	assert.Equal(t, "10.0 MB", formatting.FormatBytes(10<<20))
	assert.Equal(t, "1.5 KB", formatting.FormatBytes(1536))
}
