// Package dataset builds synthetic speech datasets: phrase sampling, SSML
// construction with natural pauses, and batch synthesis with a transcript.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

var (
	// ErrPhrasesFileNotFound indicates that the phrase source file does not exist.
	ErrPhrasesFileNotFound = errors.New("phrases file not found")
	// ErrInsufficientPhrases indicates fewer distinct phrases than requested.
	ErrInsufficientPhrases = errors.New("not enough distinct phrases")
	// ErrInvalidSampleCount indicates a non-positive sample size.
	ErrInvalidSampleCount = errors.New("sample count must be positive")
)

const numericPrefixPattern = `^\d+\.?\s*`

var numericPrefix = regexp.MustCompile(numericPrefixPattern)

// Source is the randomness used for sampling, voice choice and pauses.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// CleanPhrases trims lines, drops blanks, strips numeric prefixes such as
// "01. " and removes duplicates, keeping the first occurrence.
func CleanPhrases(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	phrases := make([]string, 0, len(lines))

	for _, line := range lines {
		phrase := strings.TrimSpace(line)
		if phrase == "" {
			continue
		}

		phrase = numericPrefix.ReplaceAllString(phrase, "")
		if phrase == "" {
			continue
		}

		if _, dup := seen[phrase]; dup {
			continue
		}

		seen[phrase] = struct{}{}
		phrases = append(phrases, phrase)
	}

	return phrases
}

// LoadPhrases reads a newline-delimited phrase file and cleans it.
func LoadPhrases(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPhrasesFileNotFound, path)
		}

		return nil, fmt.Errorf("failed to read phrases file '%s': %w", path, err)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	return CleanPhrases(strings.Split(text, "\n")), nil
}

// SamplePhrases shuffles a copy of phrases and returns the first n.
func SamplePhrases(phrases []string, n int, rng Source) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSampleCount, n)
	}

	if len(phrases) < n {
		return nil, fmt.Errorf(
			"%w: need at least %d, only %d after cleaning",
			ErrInsufficientPhrases, n, len(phrases),
		)
	}

	shuffled := make([]string, len(phrases))
	copy(shuffled, phrases)

	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled[:n], nil
}

// Sample loads the phrase file at path and samples n distinct phrases.
func Sample(path string, n int, rng Source) ([]string, error) {
	phrases, err := LoadPhrases(path)
	if err != nil {
		return nil, err
	}

	return SamplePhrases(phrases, n, rng)
}
