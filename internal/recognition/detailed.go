package recognition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ErrMalformedDetailed indicates a detailed payload without the expected shape.
var ErrMalformedDetailed = errors.New("malformed detailed result")

// Detailed is the subset of the detailed recognition payload we read.
type Detailed struct {
	RecognitionStatus string        `json:"RecognitionStatus"`
	DisplayText       string        `json:"DisplayText"`
	Offset            int64         `json:"Offset"`
	Duration          int64         `json:"Duration"`
	NBest             []Alternative `json:"NBest"`
}

// Alternative is one candidate transcription.
type Alternative struct {
	Confidence float64 `json:"Confidence"`
	Lexical    string  `json:"Lexical"`
	ITN        string  `json:"ITN"`
	MaskedITN  string  `json:"MaskedITN"`
	Display    string  `json:"Display"`
}

// ParseDetailed decodes a detailed recognition payload.
func ParseDetailed(payload []byte) (*Detailed, error) {
	var detailed Detailed

	err := json.Unmarshal(payload, &detailed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDetailed, err)
	}

	if detailed.RecognitionStatus == "" && len(detailed.NBest) == 0 {
		return nil, fmt.Errorf("%w: no RecognitionStatus or NBest", ErrMalformedDetailed)
	}

	return &detailed, nil
}

// Alternates returns the distinct display variants that differ from primary,
// in the order the service ranked them.
func (d *Detailed) Alternates(primary string) []string {
	seen := map[string]struct{}{strings.TrimSpace(primary): {}}

	var alternates []string

	for _, candidate := range d.NBest {
		text := strings.TrimSpace(candidate.Display)
		if text == "" {
			text = strings.TrimSpace(candidate.Lexical)
		}

		if text == "" {
			continue
		}

		if _, dup := seen[text]; dup {
			continue
		}

		seen[text] = struct{}{}
		alternates = append(alternates, text)
	}

	return alternates
}
