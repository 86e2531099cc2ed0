// Package core defines the collaborator interfaces and shared types for speechkit.
package core

import (
	"context"
	"time"
)

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	// UploadFile streams the file at path to key.
	UploadFile(ctx context.Context, key, path string) error
}

// Transcriber recognizes speech from a single audio file.
// Results are reported through the transcriber's own event sink; the
// returned error only covers failures to run the session.
type Transcriber interface {
	TranscribeFile(ctx context.Context, path string) error
}

// Synthesizer renders an SSML document to a WAV file at outPath.
type Synthesizer interface {
	SynthesizeSSML(ctx context.Context, ssml, outPath string) error
}

// VoiceLister enumerates the synthesis voices offered in the configured region.
type VoiceLister interface {
	ListVoices(ctx context.Context, locale string) ([]Voice, error)
}

// SegmentPublisher forwards finalized segments to an external consumer.
type SegmentPublisher interface {
	Publish(ctx context.Context, segment Segment) error
}

// Segment is a finalized span of recognized speech.
type Segment struct {
	ResultID   string        `json:"result_id"`
	Source     string        `json:"source"`
	Text       string        `json:"text"`
	Alternates []string      `json:"alternates,omitempty"`
	Offset     time.Duration `json:"offset"`
	Duration   time.Duration `json:"duration"`
	Recognized time.Time     `json:"recognized"`
}

// Voice describes a synthetic speaker identity.
type Voice struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Locale    string `json:"locale"`
	Gender    string `json:"gender"`
	VoiceType string `json:"voice_type"`
}
