// Package config provides the configuration structure for speechkit.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

var (
	// ErrMissingKey indicates that no subscription key was configured.
	ErrMissingKey = errors.New("speech subscription key is not set")
	// ErrMissingRegion indicates that neither a region nor an endpoint was configured.
	ErrMissingRegion = errors.New("speech region or endpoint is not set")
	// ErrInvalidValue indicates that an environment override could not be parsed.
	ErrInvalidValue = errors.New("invalid configuration value")
	// ErrUnknownTranscriptPolicy indicates an unsupported transcript policy name.
	ErrUnknownTranscriptPolicy = errors.New("unknown transcript policy")
)

// Transcript policy names.
const (
	TranscriptPolicyAlways     = "always"
	TranscriptPolicySkipFailed = "skip_failed"
)

// Environment variable names.
const (
	envSpeechKey            = "SPEECH_KEY"
	envSpeechRegion         = "SPEECH_REGION"
	envSpeechEndpoint       = "SPEECH_ENDPOINT"
	envCustomEndpointID     = "CUSTOM_ENDPOINT_ID"
	envCustomEndpointKey    = "CUSTOM_ENDPOINT_KEY"
	envLocale               = "LOCALE"
	envProfanity            = "PROFANITY"
	envInputDir             = "INPUT_DIR"
	envUseMic               = "USE_MIC"
	envPollIntervalMS       = "POLL_INTERVAL_MS"
	envBoostPhrasesFile     = "BOOST_PHRASES_FILE"
	envDetailedResults      = "DETAILED_RESULTS"
	envSegStrategy          = "SEGMENTATION_STRATEGY"
	envSegInitSilenceMS     = "SEGMENTATION_INIT_SILENCE_TIMEOUT_MS"
	envSegEndSilenceMS      = "SEGMENTATION_END_SILENCE_TIMEOUT_MS"
	envVoiceName            = "VOICE_NAME"
	envTTSText              = "TTS_TEXT"
	envOutDir               = "OUT_DIR"
	envPhrasesFile          = "PHRASES_FILE"
	envSampleCount          = "SAMPLE_COUNT"
	envOutputFormat         = "OUTPUT_FORMAT"
	envTranscriptPolicy     = "TRANSCRIPT_POLICY"
	envNATSURL              = "NATS_URL"
	envNATSSegmentSubject   = "NATS_SEGMENT_SUBJECT"
	envNATSSynthesisSubject = "NATS_SYNTHESIS_SUBJECT"
	envNATSAudioBucket      = "NATS_AUDIO_BUCKET"
	envNATSConcurrency      = "NATS_CONCURRENCY"
	envLogDir               = "LOG_DIR"
)

// SpeechConfig holds credentials and connection settings for the speech service.
type SpeechConfig struct {
	Key               string `toml:"key"`
	Region            string `toml:"region"`
	Endpoint          string `toml:"endpoint"`
	CustomEndpointID  string `toml:"custom_endpoint_id"`
	CustomEndpointKey string `toml:"custom_endpoint_key"`
	Locale            string `toml:"locale"`
	Profanity         string `toml:"profanity"`
}

// SegmentationConfig holds the segmentation strategy and silence timeouts.
type SegmentationConfig struct {
	Strategy                string `toml:"strategy"`
	InitialSilenceTimeoutMS int    `toml:"initial_silence_timeout_ms"`
	EndSilenceTimeoutMS     int    `toml:"end_silence_timeout_ms"`
}

// RecognitionConfig holds settings for microphone and folder transcription.
type RecognitionConfig struct {
	InputDir         string `toml:"input_dir"`
	UseMic           bool   `toml:"use_mic"`
	PollIntervalMS   int    `toml:"poll_interval_ms"`
	BoostPhrasesFile string `toml:"boost_phrases_file"`
	DetailedResults  bool   `toml:"detailed_results"`
}

// SynthesisConfig holds settings for dataset generation and single synthesis.
type SynthesisConfig struct {
	VoiceName        string `toml:"voice_name"`
	Text             string `toml:"text"`
	OutputDir        string `toml:"output_dir"`
	PhrasesFile      string `toml:"phrases_file"`
	SampleCount      int    `toml:"sample_count"`
	OutputFormat     string `toml:"output_format"`
	TranscriptPolicy string `toml:"transcript_policy"`
	SentenceBoundary bool   `toml:"sentence_boundary"`
}

// NATSConfig holds the configuration for NATS. An empty URL disables NATS.
type NATSConfig struct {
	URL              string `toml:"url"`
	SegmentSubject   string `toml:"segment_subject"`
	SynthesisSubject string `toml:"synthesis_subject"`
	AudioBucket      string `toml:"audio_bucket"`
	Concurrency      int    `toml:"concurrency"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Speech       SpeechConfig       `toml:"speech"`
	Segmentation SegmentationConfig `toml:"segmentation"`
	Recognition  RecognitionConfig  `toml:"recognition"`
	Synthesis    SynthesisConfig    `toml:"synthesis"`
	NATS         NATSConfig         `toml:"nats"`
	Paths        PathsConfig        `toml:"paths"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Speech: SpeechConfig{
			Locale:    "en-US",
			Profanity: "masked",
		},
		Segmentation: SegmentationConfig{
			Strategy:                "Semantic",
			InitialSilenceTimeoutMS: 800,
			EndSilenceTimeoutMS:     800,
		},
		Recognition: RecognitionConfig{
			InputDir:       "./incoming_audio",
			PollIntervalMS: 2000,
		},
		Synthesis: SynthesisConfig{
			VoiceName:        "en-US-AvaMultilingualNeural",
			Text:             "Hello, welcome to Azure AI Foundry!",
			OutputDir:        "./tts_dataset",
			PhrasesFile:      "./phrases.txt",
			SampleCount:      20,
			OutputFormat:     "riff-16khz-16bit-mono-pcm",
			TranscriptPolicy: TranscriptPolicyAlways,
		},
		NATS: NATSConfig{
			SegmentSubject:   "speech.segment.recognized",
			SynthesisSubject: "speech.synthesis.requested",
			AudioBucket:      "SPEECH_AUDIO",
			Concurrency:      2,
		},
		Paths: PathsConfig{
			BaseLogsDir: os.TempDir(),
		},
	}
}

// Load resolves the configuration from defaults, a TOML file, a .env file and
// the process environment, in increasing order of precedence. When path is
// empty the central configurator is consulted instead of a local file.
func Load(log *logger.Logger, path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		fileErr := LoadFile(path, cfg)
		if fileErr != nil {
			return nil, fileErr
		}
	} else {
		err := configurator.Load(cfg, log)
		if err != nil {
			log.Warn("Configurator unavailable, using defaults and environment: %v", err)
		}
	}

	dotenvErr := godotenv.Load()
	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", dotenvErr)
	}

	err := cfg.ApplyEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile decodes the TOML file at path on top of cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	err = toml.Unmarshal(data, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	return nil
}

// ApplyEnv overrides fields from environment variables found via lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		envSpeechKey:            &c.Speech.Key,
		envSpeechRegion:         &c.Speech.Region,
		envSpeechEndpoint:       &c.Speech.Endpoint,
		envCustomEndpointID:     &c.Speech.CustomEndpointID,
		envCustomEndpointKey:    &c.Speech.CustomEndpointKey,
		envLocale:               &c.Speech.Locale,
		envProfanity:            &c.Speech.Profanity,
		envInputDir:             &c.Recognition.InputDir,
		envBoostPhrasesFile:     &c.Recognition.BoostPhrasesFile,
		envSegStrategy:          &c.Segmentation.Strategy,
		envVoiceName:            &c.Synthesis.VoiceName,
		envTTSText:              &c.Synthesis.Text,
		envOutDir:               &c.Synthesis.OutputDir,
		envPhrasesFile:          &c.Synthesis.PhrasesFile,
		envOutputFormat:         &c.Synthesis.OutputFormat,
		envTranscriptPolicy:     &c.Synthesis.TranscriptPolicy,
		envNATSURL:              &c.NATS.URL,
		envNATSSegmentSubject:   &c.NATS.SegmentSubject,
		envNATSSynthesisSubject: &c.NATS.SynthesisSubject,
		envNATSAudioBucket:      &c.NATS.AudioBucket,
		envLogDir:               &c.Paths.BaseLogsDir,
	}

	for name, target := range strs {
		if value, ok := lookup(name); ok {
			*target = strings.TrimSpace(value)
		}
	}

	ints := map[string]*int{
		envPollIntervalMS:   &c.Recognition.PollIntervalMS,
		envSegInitSilenceMS: &c.Segmentation.InitialSilenceTimeoutMS,
		envSegEndSilenceMS:  &c.Segmentation.EndSilenceTimeoutMS,
		envSampleCount:      &c.Synthesis.SampleCount,
		envNATSConcurrency:  &c.NATS.Concurrency,
	}

	for name, target := range ints {
		value, ok := lookup(name)
		if !ok {
			continue
		}

		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, name, value)
		}

		*target = parsed
	}

	bools := map[string]*bool{
		envUseMic:          &c.Recognition.UseMic,
		envDetailedResults: &c.Recognition.DetailedResults,
	}

	for name, target := range bools {
		value, ok := lookup(name)
		if !ok {
			continue
		}

		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, name, value)
		}

		*target = parsed
	}

	return c.validatePolicy()
}

// ValidateRecognition checks the settings needed to open a recognizer.
func (c *Config) ValidateRecognition() error {
	if c.Speech.CustomEndpointKey == "" && c.Speech.Key == "" {
		return fmt.Errorf("%w: set %s or %s", ErrMissingKey, envCustomEndpointKey, envSpeechKey)
	}

	if c.Speech.Region == "" && c.Speech.Endpoint == "" {
		return fmt.Errorf("%w: set %s or %s", ErrMissingRegion, envSpeechRegion, envSpeechEndpoint)
	}

	return nil
}

// ValidateSynthesis checks the settings needed to open a synthesizer.
func (c *Config) ValidateSynthesis() error {
	if c.Speech.Key == "" {
		return fmt.Errorf("%w: set %s", ErrMissingKey, envSpeechKey)
	}

	if c.Speech.Region == "" && c.Speech.Endpoint == "" {
		return fmt.Errorf("%w: set %s or %s", ErrMissingRegion, envSpeechRegion, envSpeechEndpoint)
	}

	return nil
}

// PollInterval returns the folder watcher poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Recognition.PollIntervalMS) * time.Millisecond
}

// NATSEnabled reports whether a NATS server is configured.
func (c *Config) NATSEnabled() bool {
	return c.NATS.URL != ""
}

func (c *Config) validatePolicy() error {
	switch c.Synthesis.TranscriptPolicy {
	case TranscriptPolicyAlways, TranscriptPolicySkipFailed:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTranscriptPolicy, c.Synthesis.TranscriptPolicy)
	}
}
