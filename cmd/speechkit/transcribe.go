package main

import (
	"context"
	"io"

	"github.com/book-expert/logger"
	"github.com/book-expert/speechkit/internal/azure"
	"github.com/book-expert/speechkit/internal/config"
	"github.com/book-expert/speechkit/internal/console"
	"github.com/book-expert/speechkit/internal/publisher"
	"github.com/book-expert/speechkit/internal/recognition"
	"github.com/book-expert/speechkit/internal/watcher"
	"github.com/urfave/cli/v3"
)

const micQuestion = "Use microphone? (Y/N): "

func transcribeCommand(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "transcribe",
		Usage: "Transcribe the microphone live, or watch a folder for audio files",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "mic", Usage: "Use the microphone without asking"},
			&cli.BoolFlag{Name: "no-prompt", Usage: "Do not ask; fall back to USE_MIC"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := bootstrap(c, "speechkit-transcribe.log")
			if err != nil {
				return err
			}
			defer closeLogger(log)

			useMic := cfg.Recognition.UseMic || c.Bool("mic")
			if !useMic && !c.Bool("no-prompt") {
				useMic, err = console.AskYesNo(in, out, micQuestion)
				if err != nil {
					return err
				}
			}

			if useMic {
				return transcribeMicrophone(ctx, cfg, log, out)
			}

			return watchFolder(ctx, cfg, log, out)
		},
	}
}

func watchCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Transcribe every new audio file dropped into INPUT_DIR",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "Directory to watch (overrides INPUT_DIR)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := bootstrap(c, "speechkit-watch.log")
			if err != nil {
				return err
			}
			defer closeLogger(log)

			if dir := c.String("dir"); dir != "" {
				cfg.Recognition.InputDir = dir
			}

			return watchFolder(ctx, cfg, log, out)
		},
	}
}

// recognitionDeps are the pieces shared by microphone and folder transcription.
type recognitionDeps struct {
	printer *recognition.Printer
	phrases []string
	cleanup func()
}

func newRecognitionDeps(cfg *config.Config, log *logger.Logger, out io.Writer) (*recognitionDeps, error) {
	phrases, err := recognition.LoadBoostPhrases(cfg.Recognition.BoostPhrasesFile)
	if err != nil {
		return nil, err
	}

	deps := &recognitionDeps{
		printer: recognition.NewPrinter(out, log),
		phrases: phrases,
		cleanup: func() {},
	}

	if !cfg.NATSEnabled() {
		return deps, nil
	}

	natsConnection, err := connectNATS(cfg)
	if err != nil {
		return nil, err
	}

	pub, err := publisher.New(natsConnection, cfg.NATS.SegmentSubject)
	if err != nil {
		natsConnection.Close()

		return nil, err
	}

	deps.printer.WithPublisher(pub)
	deps.cleanup = func() {
		drainErr := natsConnection.Drain()
		if drainErr != nil {
			log.Warn("Failed to drain NATS connection: %v", drainErr)
		}
	}

	log.Info("Publishing segments on %s", cfg.NATS.SegmentSubject)

	return deps, nil
}

func transcribeMicrophone(ctx context.Context, cfg *config.Config, log *logger.Logger, out io.Writer) error {
	speechConfig, err := azure.NewRecognitionConfig(cfg)
	if err != nil {
		return err
	}
	defer speechConfig.Close()

	deps, err := newRecognitionDeps(cfg, log, out)
	if err != nil {
		return err
	}
	defer deps.cleanup()

	session, err := azure.NewMicrophoneSession(speechConfig, deps.printer, deps.phrases, cfg.Recognition.DetailedResults)
	if err != nil {
		return err
	}
	defer session.Close()

	deps.printer.Printf("%s", azure.Banner(cfg))
	deps.printer.Printf("[STT] Speak; segments will appear as they are finalized. Press Ctrl+C to stop.\n")

	runErr := recognition.Run(ctx, session)

	deps.printer.Printf("\n[STT] Stopping...")

	return runErr
}

func watchFolder(ctx context.Context, cfg *config.Config, log *logger.Logger, out io.Writer) error {
	speechConfig, err := azure.NewRecognitionConfig(cfg)
	if err != nil {
		return err
	}
	defer speechConfig.Close()

	deps, err := newRecognitionDeps(cfg, log, out)
	if err != nil {
		return err
	}
	defer deps.cleanup()

	transcriber := azure.NewFileTranscriber(speechConfig, deps.printer, deps.phrases, cfg.Recognition.DetailedResults, log)

	folderWatcher, err := watcher.New(cfg.Recognition.InputDir, cfg.PollInterval(), transcriber, log)
	if err != nil {
		return err
	}

	deps.printer.Printf("[Watcher] Watching %s every %s. Press Ctrl+C to stop.", cfg.Recognition.InputDir, cfg.PollInterval())

	return folderWatcher.Run(ctx)
}
