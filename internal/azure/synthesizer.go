package azure

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/book-expert/logger"
	"github.com/book-expert/speechkit/internal/console"
)

// ErrSynthesisCanceled indicates the service canceled a synthesis request.
var ErrSynthesisCanceled = errors.New("speech synthesis canceled")

// Synthesizer renders text or SSML to WAV files.
type Synthesizer struct {
	speechConfig *speech.SpeechConfig
	events       io.Writer
	log          *logger.Logger
}

// NewSynthesizer creates a Synthesizer. The speech config is owned by the caller.
func NewSynthesizer(speechConfig *speech.SpeechConfig, log *logger.Logger) *Synthesizer {
	return &Synthesizer{speechConfig: speechConfig, log: log}
}

// WithEvents prints synthesis events to w and returns the Synthesizer.
func (s *Synthesizer) WithEvents(w io.Writer) *Synthesizer {
	s.events = w

	return s
}

// SynthesizeSSML renders an SSML document to outPath.
func (s *Synthesizer) SynthesizeSSML(ctx context.Context, ssml, outPath string) error {
	return s.speak(ctx, outPath, func(synth *speech.SpeechSynthesizer) chan speech.SpeechSynthesisOutcome {
		return synth.SpeakSsmlAsync(ssml)
	})
}

// SpeakText renders plain text with the configured voice to outPath.
func (s *Synthesizer) SpeakText(ctx context.Context, text, outPath string) error {
	return s.speak(ctx, outPath, func(synth *speech.SpeechSynthesizer) chan speech.SpeechSynthesisOutcome {
		return synth.SpeakTextAsync(text)
	})
}

func (s *Synthesizer) speak(
	ctx context.Context,
	outPath string,
	start func(*speech.SpeechSynthesizer) chan speech.SpeechSynthesisOutcome,
) error {
	audioConfig, err := audio.NewAudioConfigFromWavFileOutput(outPath)
	if err != nil {
		return fmt.Errorf("failed to open wav output '%s': %w", outPath, err)
	}
	defer audioConfig.Close()

	synth, err := speech.NewSpeechSynthesizerFromConfig(s.speechConfig, audioConfig)
	if err != nil {
		return fmt.Errorf("failed to create speech synthesizer: %w", err)
	}
	defer synth.Close()

	if s.events != nil {
		s.wireEvents(synth)
	}

	var outcome speech.SpeechSynthesisOutcome

	select {
	case outcome = <-start(synth):
	case <-ctx.Done():
		return fmt.Errorf("synthesis of '%s' interrupted: %w", outPath, ctx.Err())
	}
	defer outcome.Close()

	if outcome.Error != nil {
		return fmt.Errorf("synthesis outcome error: %w", outcome.Error)
	}

	if outcome.Result.Reason == common.SynthesizingAudioCompleted {
		return nil
	}

	details, detailsErr := speech.NewCancellationDetailsFromSpeechSynthesisResult(outcome.Result)
	if detailsErr != nil {
		return fmt.Errorf("%w: reason=%v", ErrSynthesisCanceled, outcome.Result.Reason)
	}

	s.log.Error("Synthesis to %s canceled: reason=%v details=%s", outPath, details.Reason, details.ErrorDetails)

	return fmt.Errorf("%w: reason=%v details=%s", ErrSynthesisCanceled, details.Reason, details.ErrorDetails)
}

func (s *Synthesizer) wireEvents(synth *speech.SpeechSynthesizer) {
	synth.SynthesisStarted(func(e speech.SpeechSynthesisEventArgs) {
		defer e.Close()

		fmt.Fprintln(s.events, "[SynthesisStarted]")
	})

	synth.Synthesizing(func(e speech.SpeechSynthesisEventArgs) {
		defer e.Close()

		fmt.Fprintf(s.events, "[Synthesizing] chunk=%d bytes\n", len(e.Result.AudioData))
	})

	synth.SynthesisCompleted(func(e speech.SpeechSynthesisEventArgs) {
		defer e.Close()

		fmt.Fprintf(s.events, "[SynthesisCompleted] audio=%d bytes duration=%v\n",
			len(e.Result.AudioData), e.Result.AudioDuration)
	})

	synth.SynthesisCanceled(func(e speech.SpeechSynthesisEventArgs) {
		defer e.Close()

		fmt.Fprintln(s.events, "[SynthesisCanceled]")
	})

	synth.WordBoundary(func(e speech.SpeechSynthesisWordBoundaryEventArgs) {
		defer e.Close()

		fmt.Fprintf(s.events, "[WordBoundary] t=%.1f ms text=%q\n",
			console.OffsetMillis(uint64(e.AudioOffset)), e.Text)
	})

	synth.VisemeReceived(func(e speech.SpeechSynthesisVisemeEventArgs) {
		defer e.Close()

		fmt.Fprintf(s.events, "[Viseme] t=%.1f ms visemeId=%v\n",
			console.OffsetMillis(uint64(e.AudioOffset)), e.VisemeID)
	})

	synth.BookmarkReached(func(e speech.SpeechSynthesisBookmarkEventArgs) {
		defer e.Close()

		fmt.Fprintf(s.events, "[BookmarkReached] offset=%d text=%q\n", e.AudioOffset, e.Text)
	})
}
