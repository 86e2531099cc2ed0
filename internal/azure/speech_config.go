// Package azure adapts the Azure Speech SDK to the speechkit interfaces.
// It is kept thin: everything that can be exercised without the native
// library lives in the recognition, dataset and catalog packages.
package azure

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/book-expert/speechkit/internal/config"
)

// Service property names set through SetPropertyByString.
const (
	propSegmentationStrategy  = "Speech-SegmentationStrategy"
	propInitialSilenceTimeout = "SpeechServiceConnection_InitialSilenceTimeoutMs"
	propEndSilenceTimeout     = "SpeechServiceConnection_EndSilenceTimeoutMs"
	propDetailedResult        = "SpeechServiceResponse_RequestDetailedResultTrueFalse"
	propSentenceBoundary      = "SpeechServiceResponse_RequestSentenceBoundary"
)

var (
	// ErrUnknownOutputFormat indicates an unsupported synthesis output format name.
	ErrUnknownOutputFormat = errors.New("unknown synthesis output format")
	// ErrUnknownProfanity indicates an unsupported profanity option name.
	ErrUnknownProfanity = errors.New("unknown profanity option")
)

var outputFormats = map[string]common.SpeechSynthesisOutputFormat{
	"riff-8khz-16bit-mono-pcm":  common.Riff8Khz16BitMonoPcm,
	"riff-16khz-16bit-mono-pcm": common.Riff16Khz16BitMonoPcm,
	"riff-24khz-16bit-mono-pcm": common.Riff24Khz16BitMonoPcm,
	"riff-48khz-16bit-mono-pcm": common.Riff48Khz16BitMonoPcm,
}

var profanityOptions = map[string]common.ProfanityOption{
	"masked":  common.Masked,
	"removed": common.Removed,
	"raw":     common.Raw,
}

// NewRecognitionConfig builds a speech config for continuous recognition.
// The custom endpoint key takes precedence over the speech key.
func NewRecognitionConfig(cfg *config.Config) (*speech.SpeechConfig, error) {
	validateErr := cfg.ValidateRecognition()
	if validateErr != nil {
		return nil, validateErr
	}

	key := cfg.Speech.CustomEndpointKey
	if key == "" {
		key = cfg.Speech.Key
	}

	speechConfig, err := newSpeechConfig(key, cfg.Speech.Region, cfg.Speech.Endpoint)
	if err != nil {
		return nil, err
	}

	err = applyRecognitionSettings(speechConfig, cfg)
	if err != nil {
		speechConfig.Close()

		return nil, err
	}

	return speechConfig, nil
}

func applyRecognitionSettings(speechConfig *speech.SpeechConfig, cfg *config.Config) error {
	profanity, ok := profanityOptions[strings.ToLower(cfg.Speech.Profanity)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProfanity, cfg.Speech.Profanity)
	}

	if cfg.Speech.CustomEndpointID != "" {
		err := speechConfig.SetEndpointID(cfg.Speech.CustomEndpointID)
		if err != nil {
			return fmt.Errorf("failed to set endpoint id: %w", err)
		}
	}

	err := speechConfig.SetSpeechRecognitionLanguage(cfg.Speech.Locale)
	if err != nil {
		return fmt.Errorf("failed to set recognition language: %w", err)
	}

	err = speechConfig.SetProfanity(profanity)
	if err != nil {
		return fmt.Errorf("failed to set profanity option: %w", err)
	}

	err = speechConfig.EnableDictation()
	if err != nil {
		return fmt.Errorf("failed to enable dictation: %w", err)
	}

	properties := map[string]string{
		propSegmentationStrategy:  cfg.Segmentation.Strategy,
		propInitialSilenceTimeout: strconv.Itoa(cfg.Segmentation.InitialSilenceTimeoutMS),
		propEndSilenceTimeout:     strconv.Itoa(cfg.Segmentation.EndSilenceTimeoutMS),
	}

	if cfg.Recognition.DetailedResults {
		properties[propDetailedResult] = "true"
	}

	return setProperties(speechConfig, properties)
}

// NewSynthesisConfig builds a speech config for synthesis and voice listing.
func NewSynthesisConfig(cfg *config.Config) (*speech.SpeechConfig, error) {
	validateErr := cfg.ValidateSynthesis()
	if validateErr != nil {
		return nil, validateErr
	}

	format, ok := outputFormats[strings.ToLower(cfg.Synthesis.OutputFormat)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutputFormat, cfg.Synthesis.OutputFormat)
	}

	speechConfig, err := newSpeechConfig(cfg.Speech.Key, cfg.Speech.Region, cfg.Speech.Endpoint)
	if err != nil {
		return nil, err
	}

	err = speechConfig.SetSpeechSynthesisOutputFormat(format)
	if err != nil {
		speechConfig.Close()

		return nil, fmt.Errorf("failed to set synthesis output format: %w", err)
	}

	if cfg.Synthesis.VoiceName != "" {
		err = speechConfig.SetSpeechSynthesisVoiceName(cfg.Synthesis.VoiceName)
		if err != nil {
			speechConfig.Close()

			return nil, fmt.Errorf("failed to set synthesis voice: %w", err)
		}
	}

	if cfg.Synthesis.SentenceBoundary {
		err = setProperties(speechConfig, map[string]string{propSentenceBoundary: "true"})
		if err != nil {
			speechConfig.Close()

			return nil, err
		}
	}

	return speechConfig, nil
}

// Banner returns the startup line printed when the microphone opens.
func Banner(cfg *config.Config) string {
	return fmt.Sprintf("[STT] Mic on (locale=%s) | Strategy=%s | SilenceTimeout=[Init: %dms, End: %dms]",
		cfg.Speech.Locale,
		cfg.Segmentation.Strategy,
		cfg.Segmentation.InitialSilenceTimeoutMS,
		cfg.Segmentation.EndSilenceTimeoutMS,
	)
}

func newSpeechConfig(key, region, endpoint string) (*speech.SpeechConfig, error) {
	if region != "" {
		speechConfig, err := speech.NewSpeechConfigFromSubscription(key, region)
		if err != nil {
			return nil, fmt.Errorf("failed to create speech config for region %s: %w", region, err)
		}

		return speechConfig, nil
	}

	speechConfig, err := speech.NewSpeechConfigFromEndpointWithSubscription(endpoint, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech config for endpoint %s: %w", endpoint, err)
	}

	return speechConfig, nil
}

func setProperties(speechConfig *speech.SpeechConfig, properties map[string]string) error {
	for name, value := range properties {
		err := speechConfig.SetPropertyByString(name, value)
		if err != nil {
			return fmt.Errorf("failed to set property %s: %w", name, err)
		}
	}

	return nil
}
