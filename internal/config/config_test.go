// Package config_test tests the configuration loading for speechkit.
package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/speechkit/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envLookup(values map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		value, ok := values[name]

		return value, ok
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[speech]
key = "secret"
region = "japaneast"
locale = "en-GB"
profanity = "raw"

[segmentation]
strategy = "Coarse"
initial_silence_timeout_ms = 1200
end_silence_timeout_ms = 500

[recognition]
input_dir = "/data/in"
use_mic = true
poll_interval_ms = 5000

[synthesis]
voice_name = "en-US-JennyNeural"
output_dir = "/data/out"
phrases_file = "/data/phrases.txt"
sample_count = 50
transcript_policy = "skip_failed"

[nats]
url = "nats://127.0.0.1:4222"
segment_subject = "segments"
synthesis_subject = "synth"
audio_bucket = "AUDIO"
concurrency = 4
`

	cfg := config.Defaults()

	err := toml.Unmarshal([]byte(tomlData), cfg)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Speech.Key)
	assert.Equal(t, "japaneast", cfg.Speech.Region)
	assert.Equal(t, "en-GB", cfg.Speech.Locale)
	assert.Equal(t, "raw", cfg.Speech.Profanity)
	assert.Equal(t, "Coarse", cfg.Segmentation.Strategy)
	assert.Equal(t, 1200, cfg.Segmentation.InitialSilenceTimeoutMS)
	assert.Equal(t, 500, cfg.Segmentation.EndSilenceTimeoutMS)
	assert.Equal(t, "/data/in", cfg.Recognition.InputDir)
	assert.True(t, cfg.Recognition.UseMic)
	assert.Equal(t, 5000, cfg.Recognition.PollIntervalMS)
	assert.Equal(t, "en-US-JennyNeural", cfg.Synthesis.VoiceName)
	assert.Equal(t, 50, cfg.Synthesis.SampleCount)
	assert.Equal(t, config.TranscriptPolicySkipFailed, cfg.Synthesis.TranscriptPolicy)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, 4, cfg.NATS.Concurrency)

	// Untouched sections keep their defaults.
	assert.Equal(t, "riff-16khz-16bit-mono-pcm", cfg.Synthesis.OutputFormat)
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()

	assert.Equal(t, "en-US", cfg.Speech.Locale)
	assert.Equal(t, "Semantic", cfg.Segmentation.Strategy)
	assert.Equal(t, 800, cfg.Segmentation.InitialSilenceTimeoutMS)
	assert.Equal(t, 800, cfg.Segmentation.EndSilenceTimeoutMS)
	assert.Equal(t, "./incoming_audio", cfg.Recognition.InputDir)
	assert.Equal(t, 20, cfg.Synthesis.SampleCount)
	assert.Equal(t, config.TranscriptPolicyAlways, cfg.Synthesis.TranscriptPolicy)
	assert.False(t, cfg.NATSEnabled())
	assert.Equal(t, "2s", cfg.PollInterval().String())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "speechkit.toml")
	require.NoError(t, os.WriteFile(path, []byte("[speech]\nregion = \"westeurope\"\n"), 0o600))

	cfg := config.Defaults()
	require.NoError(t, config.LoadFile(path, cfg))

	assert.Equal(t, "westeurope", cfg.Speech.Region)
	assert.Equal(t, "en-US", cfg.Speech.Locale)
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	err := config.LoadFile(filepath.Join(t.TempDir(), "nope.toml"), config.Defaults())
	require.Error(t, err)
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()

	err := cfg.ApplyEnv(envLookup(map[string]string{
		"SPEECH_KEY":                           "k",
		"SPEECH_REGION":                        " eastus ",
		"USE_MIC":                              "true",
		"SEGMENTATION_INIT_SILENCE_TIMEOUT_MS": "1500",
		"SAMPLE_COUNT":                         "7",
		"NATS_URL":                             "nats://localhost:4222",
		"DETAILED_RESULTS":                     "1",
	}))
	require.NoError(t, err)

	assert.Equal(t, "k", cfg.Speech.Key)
	assert.Equal(t, "eastus", cfg.Speech.Region)
	assert.True(t, cfg.Recognition.UseMic)
	assert.True(t, cfg.Recognition.DetailedResults)
	assert.Equal(t, 1500, cfg.Segmentation.InitialSilenceTimeoutMS)
	assert.Equal(t, 7, cfg.Synthesis.SampleCount)
	assert.True(t, cfg.NATSEnabled())
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values map[string]string
		want   error
	}{
		{name: "bad int", values: map[string]string{"SAMPLE_COUNT": "twenty"}, want: config.ErrInvalidValue},
		{name: "bad bool", values: map[string]string{"USE_MIC": "maybe"}, want: config.ErrInvalidValue},
		{name: "yes is not a bool", values: map[string]string{"USE_MIC": "yes"}, want: config.ErrInvalidValue},
		{
			name:   "bad policy",
			values: map[string]string{"TRANSCRIPT_POLICY": "sometimes"},
			want:   config.ErrUnknownTranscriptPolicy,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := config.Defaults().ApplyEnv(envLookup(testCase.values))
			require.ErrorIs(t, err, testCase.want)
		})
	}
}

func TestValidateRecognition(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	require.ErrorIs(t, cfg.ValidateRecognition(), config.ErrMissingKey)

	cfg.Speech.CustomEndpointKey = "custom"
	require.ErrorIs(t, cfg.ValidateRecognition(), config.ErrMissingRegion)

	cfg.Speech.Region = "eastus"
	require.NoError(t, cfg.ValidateRecognition())
}

func TestValidateSynthesis(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Speech.CustomEndpointKey = "custom"
	require.ErrorIs(t, cfg.ValidateSynthesis(), config.ErrMissingKey)

	cfg.Speech.Key = "k"
	require.ErrorIs(t, cfg.ValidateSynthesis(), config.ErrMissingRegion)

	cfg.Speech.Endpoint = "https://japaneast.tts.speech.microsoft.com"
	require.NoError(t, cfg.ValidateSynthesis())
}
