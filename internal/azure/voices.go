package azure

import (
	"context"
	"errors"
	"fmt"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/book-expert/speechkit/internal/core"
)

// ErrVoicesUnavailable indicates the voice list could not be retrieved.
var ErrVoicesUnavailable = errors.New("could not retrieve voices; check key/region/network")

// VoiceLister queries the voices offered in the configured region.
type VoiceLister struct {
	speechConfig *speech.SpeechConfig
}

// NewVoiceLister creates a VoiceLister. The speech config is owned by the caller.
func NewVoiceLister(speechConfig *speech.SpeechConfig) *VoiceLister {
	return &VoiceLister{speechConfig: speechConfig}
}

// ListVoices returns the voices for locale, or every voice when locale is empty.
func (l *VoiceLister) ListVoices(ctx context.Context, locale string) ([]core.Voice, error) {
	synth, err := speech.NewSpeechSynthesizerFromConfig(l.speechConfig, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech synthesizer: %w", err)
	}
	defer synth.Close()

	var outcome speech.SynthesisVoicesOutcome

	select {
	case outcome = <-synth.GetVoicesAsync(locale):
	case <-ctx.Done():
		return nil, fmt.Errorf("voice listing interrupted: %w", ctx.Err())
	}

	if outcome.Error != nil {
		return nil, fmt.Errorf("%w: %w", ErrVoicesUnavailable, outcome.Error)
	}
	defer outcome.Close()

	if outcome.Result.Reason != common.VoicesListRetrieved {
		return nil, fmt.Errorf("%w: %s", ErrVoicesUnavailable, outcome.Result.ErrorDetails)
	}

	voices := make([]core.Voice, 0, len(outcome.Result.Voices))
	for _, info := range outcome.Result.Voices {
		voices = append(voices, core.Voice{
			Name:      info.Name,
			ShortName: info.ShortName,
			Locale:    info.Locale,
			Gender:    fmt.Sprintf("%v", info.Gender),
			VoiceType: fmt.Sprintf("%v", info.VoiceType),
		})
	}

	return voices, nil
}
