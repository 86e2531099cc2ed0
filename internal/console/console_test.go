package console_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/book-expert/speechkit/internal/console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskYesNo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "upper Y", input: "Y\n", want: true},
		{name: "lower yes", input: "yes\n", want: true},
		{name: "padded", input: "  y  \r\n", want: true},
		{name: "no", input: "N\n", want: false},
		{name: "other", input: "maybe\n", want: false},
		{name: "no newline", input: "y", want: true},
		{name: "empty input", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			got, err := console.AskYesNo(strings.NewReader(tt.input), &out, "Use microphone? (Y/N): ")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Use microphone? (Y/N): ", out.String())
		})
	}
}

func TestSpeechFileName(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 9, 5, 1, 0, time.UTC)

	assert.Equal(t, "tts_en-US_20260307_090501.wav", console.SpeechFileName("en-US", now))
	assert.Equal(t, "tts_xx-XX_20260307_090501.wav", console.SpeechFileName("", now))
}

func TestOffsetMillis(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, console.OffsetMillis(0), 1e-9)
	assert.InDelta(t, 0.5, console.OffsetMillis(4999), 1e-9)
	assert.InDelta(t, 1234.6, console.OffsetMillis(12345678), 1e-9)
	assert.InDelta(t, 50.0, console.OffsetMillis(500000), 1e-9)
}
