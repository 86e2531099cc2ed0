package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/book-expert/speechkit/internal/config"
	"github.com/book-expert/speechkit/internal/core"
)

// TranscriptFileName is the ground-truth file written next to the samples.
const TranscriptFileName = "trans.txt"

const (
	sampleFileFormat = "%03d.wav"
	dirPermissions   = 0o750
	filePermissions  = 0o600
)

var (
	// ErrNoVoices indicates an empty voice catalog.
	ErrNoVoices = errors.New("voice catalog is empty")
	// ErrOutputDirEmpty indicates a missing output directory.
	ErrOutputDirEmpty = errors.New("output directory cannot be empty")
)

// TranscriptPolicy decides whether a failed sample still gets a transcript line.
type TranscriptPolicy int

const (
	// TranscriptAlways writes every phrase, even when its audio failed.
	TranscriptAlways TranscriptPolicy = iota
	// TranscriptSkipFailed writes only phrases whose audio was produced.
	TranscriptSkipFailed
)

// ParseTranscriptPolicy maps a configuration name to a TranscriptPolicy.
func ParseTranscriptPolicy(name string) (TranscriptPolicy, error) {
	switch name {
	case "", config.TranscriptPolicyAlways:
		return TranscriptAlways, nil
	case config.TranscriptPolicySkipFailed:
		return TranscriptSkipFailed, nil
	default:
		return TranscriptAlways, fmt.Errorf("%w: %q", config.ErrUnknownTranscriptPolicy, name)
	}
}

// BatchReport summarizes one batch run.
type BatchReport struct {
	OutputDir      string
	TranscriptPath string
	Succeeded      int
	Failed         int
	FailedFiles    []string
}

// Runner synthesizes a batch of phrases into numbered WAV files and a transcript.
type Runner struct {
	synth  core.Synthesizer
	store  core.ObjectStore
	voices []string
	rng    Source
	log    *logger.Logger
	out    io.Writer
	policy TranscriptPolicy
	lang   string
}

// Option configures a Runner.
type Option func(*Runner)

// WithStore uploads successful samples and the transcript to store.
func WithStore(store core.ObjectStore) Option {
	return func(r *Runner) { r.store = store }
}

// WithPolicy sets the transcript policy.
func WithPolicy(policy TranscriptPolicy) Option {
	return func(r *Runner) { r.policy = policy }
}

// WithOutput redirects console progress lines.
func WithOutput(out io.Writer) Option {
	return func(r *Runner) { r.out = out }
}

// WithLang sets the xml:lang of generated SSML.
func WithLang(lang string) Option {
	return func(r *Runner) { r.lang = lang }
}

// NewRunner creates a batch runner that picks voices from the given catalog.
func NewRunner(
	synth core.Synthesizer,
	voices []string,
	rng Source,
	log *logger.Logger,
	opts ...Option,
) (*Runner, error) {
	if len(voices) == 0 {
		return nil, ErrNoVoices
	}

	runner := &Runner{
		synth:  synth,
		voices: voices,
		rng:    rng,
		log:    log,
		out:    io.Discard,
		policy: TranscriptAlways,
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner, nil
}

// Run synthesizes each phrase and records it in the transcript. A failed
// synthesis is logged and the batch continues.
func (r *Runner) Run(ctx context.Context, phrases []string, outDir string) (*BatchReport, error) {
	if outDir == "" {
		return nil, ErrOutputDirEmpty
	}

	dirErr := os.MkdirAll(outDir, dirPermissions)
	if dirErr != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", dirErr)
	}

	report := &BatchReport{
		OutputDir:      outDir,
		TranscriptPath: filepath.Join(outDir, TranscriptFileName),
	}

	transcript, err := os.OpenFile(report.TranscriptPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}

	runErr := r.runPhrases(ctx, phrases, transcript, report)

	closeErr := transcript.Close()
	if runErr != nil {
		return report, runErr
	}

	if closeErr != nil {
		return report, fmt.Errorf("failed to close transcript: %w", closeErr)
	}

	r.uploadFile(ctx, outDir, TranscriptFileName)

	fmt.Fprintf(r.out, "\n[Dataset] Done. WAVs in: %s\n", absPath(outDir))
	fmt.Fprintf(r.out, "[Dataset] Transcript: %s\n", absPath(report.TranscriptPath))

	r.log.Info("Batch finished: %d succeeded, %d failed", report.Succeeded, report.Failed)

	return report, nil
}

func (r *Runner) runPhrases(ctx context.Context, phrases []string, transcript io.Writer, report *BatchReport) error {
	for index, text := range phrases {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return fmt.Errorf("batch interrupted after %d samples: %w", index, ctxErr)
		}

		fileName := fmt.Sprintf(sampleFileFormat, index+1)
		outPath := filepath.Join(report.OutputDir, fileName)

		voice := r.voices[r.rng.IntN(len(r.voices))]
		ssml := BuildSSML(text, voice, r.rng, SSMLOptions{Lang: r.lang})

		synthErr := r.synth.SynthesizeSSML(ctx, ssml, outPath)
		if synthErr != nil {
			report.Failed++
			report.FailedFiles = append(report.FailedFiles, fileName)

			r.log.Error("Synthesis failed for %s (voice %s): %v", fileName, voice, synthErr)
			fmt.Fprintf(r.out, "[Dataset] failed %s | voice=%s: %v\n", fileName, voice, synthErr)
		} else {
			report.Succeeded++

			r.log.Info("Saved %s with voice %s", fileName, voice)
			fmt.Fprintf(r.out, "[Dataset] saved %s | voice=%s\n", fileName, voice)
			r.uploadFile(ctx, report.OutputDir, fileName)
		}

		if synthErr != nil && r.policy == TranscriptSkipFailed {
			continue
		}

		_, writeErr := fmt.Fprintf(transcript, "%s\t%s\n", fileName, text)
		if writeErr != nil {
			return fmt.Errorf("failed to write transcript line for %s: %w", fileName, writeErr)
		}
	}

	return nil
}

func (r *Runner) uploadFile(ctx context.Context, outDir, fileName string) {
	if r.store == nil {
		return
	}

	key := filepath.Base(filepath.Clean(outDir)) + "/" + fileName

	uploadErr := r.store.UploadFile(ctx, key, filepath.Join(outDir, fileName))
	if uploadErr != nil {
		r.log.Error("Failed to upload %s: %v", key, uploadErr)
	}
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return abs
}
