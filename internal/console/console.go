// Package console holds the small interactive helpers used by the CLI.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const timestampLayout = "20060102_150405"

const ticksPerMillisecond = 10000

// AskYesNo writes question to out and reads one answer line from in.
// "y" and "yes" in any case mean yes; anything else, including end of
// input, means no.
func AskYesNo(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprint(out, question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// SpeechFileName returns tts_<locale>_<YYYYMMDD_HHMMSS>.wav for the given time.
func SpeechFileName(locale string, now time.Time) string {
	if locale == "" {
		locale = "xx-XX"
	}

	return fmt.Sprintf("tts_%s_%s.wav", locale, now.Format(timestampLayout))
}

// OffsetMillis converts a service audio offset in 100ns ticks to
// milliseconds, rounded to the nearest tenth.
func OffsetMillis(ticks uint64) float64 {
	return float64((ticks+ticksPerMillisecond/20)/(ticksPerMillisecond/10)) / 10
}
