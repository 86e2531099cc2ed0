package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/speechkit/internal/azure"
	"github.com/book-expert/speechkit/internal/catalog"
	"github.com/book-expert/speechkit/internal/console"
	"github.com/book-expert/speechkit/internal/dataset"
	"github.com/urfave/cli/v3"
)

const outputDirPermissions = 0o755

// newRand returns a seeded generator, or a randomly seeded one for seed 0.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return rand.New(rand.NewPCG(seed, seed))
}

func generateCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Synthesize a random sample of phrases into a WAV dataset with trans.txt",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Usage: "Number of phrases to sample (overrides SAMPLE_COUNT)"},
			&cli.StringFlag{Name: "phrases", Usage: "Phrase file (overrides PHRASES_FILE)"},
			&cli.StringFlag{Name: "out", Usage: "Output directory (overrides OUT_DIR)"},
			&cli.IntFlag{Name: "seed", Usage: "Random seed for reproducible datasets (0 = random)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := bootstrap(c, "speechkit-generate.log")
			if err != nil {
				return err
			}
			defer closeLogger(log)

			if c.IsSet("count") {
				cfg.Synthesis.SampleCount = int(c.Int("count"))
			}

			if phrases := c.String("phrases"); phrases != "" {
				cfg.Synthesis.PhrasesFile = phrases
			}

			if outDir := c.String("out"); outDir != "" {
				cfg.Synthesis.OutputDir = outDir
			}

			speechConfig, err := azure.NewSynthesisConfig(cfg)
			if err != nil {
				return err
			}
			defer speechConfig.Close()

			rng := newRand(uint64(c.Int("seed")))

			phrases, err := dataset.Sample(cfg.Synthesis.PhrasesFile, cfg.Synthesis.SampleCount, rng)
			if err != nil {
				return err
			}

			policy, err := dataset.ParseTranscriptPolicy(cfg.Synthesis.TranscriptPolicy)
			if err != nil {
				return err
			}

			opts := []dataset.Option{
				dataset.WithOutput(out),
				dataset.WithPolicy(policy),
				dataset.WithLang(cfg.Speech.Locale),
			}

			if cfg.NATSEnabled() {
				natsConnection, natsErr := connectNATS(cfg)
				if natsErr != nil {
					return natsErr
				}
				defer natsConnection.Close()

				store, storeErr := openAudioStore(natsConnection, cfg)
				if storeErr != nil {
					return storeErr
				}

				log.Info("Uploading dataset artifacts to bucket %s", store.Bucket())

				opts = append(opts, dataset.WithStore(store))
			}

			synth := azure.NewSynthesizer(speechConfig, log)

			runner, err := dataset.NewRunner(synth, catalog.DatasetVoices, rng, log, opts...)
			if err != nil {
				return err
			}

			report, err := runner.Run(ctx, phrases, cfg.Synthesis.OutputDir)
			if err != nil {
				return err
			}

			log.System("Dataset generated in %s: %d saved, %d failed",
				report.OutputDir, report.Succeeded, report.Failed)

			return nil
		},
	}
}

func speakCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "speak",
		Usage: "Synthesize TTS_TEXT with VOICE_NAME into a timestamped WAV file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Usage: "Text to speak (overrides TTS_TEXT)"},
			&cli.StringFlag{Name: "voice", Usage: "Voice name (overrides VOICE_NAME)"},
			&cli.StringFlag{Name: "out-dir", Usage: "Directory for the WAV file", Value: "."},
			&cli.BoolFlag{Name: "pauses", Usage: "Insert randomized pauses after punctuation"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := bootstrap(c, "speechkit-speak.log")
			if err != nil {
				return err
			}
			defer closeLogger(log)

			if text := c.String("text"); text != "" {
				cfg.Synthesis.Text = text
			}

			if voice := c.String("voice"); voice != "" {
				cfg.Synthesis.VoiceName = voice
			}

			speechConfig, err := azure.NewSynthesisConfig(cfg)
			if err != nil {
				return err
			}
			defer speechConfig.Close()

			outDir := c.String("out-dir")

			err = os.MkdirAll(outDir, outputDirPermissions)
			if err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			voice := cfg.Synthesis.VoiceName

			locale := catalog.LocaleOf(voice)
			if locale == "" {
				locale = cfg.Speech.Locale
			}

			outPath := filepath.Join(outDir, console.SpeechFileName(locale, time.Now()))
			synth := azure.NewSynthesizer(speechConfig, log).WithEvents(out)

			fmt.Fprintf(out, "Synthesizing with voice '%s' to '%s'...\n", voice, outPath)

			if c.Bool("pauses") {
				ssml := dataset.BuildSSML(cfg.Synthesis.Text, voice, newRand(0), dataset.SSMLOptions{Lang: locale})
				err = synth.SynthesizeSSML(ctx, ssml, outPath)
			} else {
				err = synth.SpeakText(ctx, cfg.Synthesis.Text, outPath)
			}

			if err != nil {
				fmt.Fprintf(out, "Synthesis failed: %v\n", err)
				fmt.Fprintln(out, "Hint: Choose a voice that exists in your region (see 'speechkit voices').")

				return err
			}

			fmt.Fprintf(out, "Saved: %s\n", outPath)
			log.Info("Saved %s with voice %s", outPath, voice)

			return nil
		},
	}
}
