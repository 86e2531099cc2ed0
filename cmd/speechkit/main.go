// main package for speechkit
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/speechkit/internal/config"
	"github.com/urfave/cli/v3"
)

const flagConfig = "config"

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger in %s: %w", logPath, err)
	}

	return log, nil
}

// bootstrap loads the configuration with a temporary logger, then opens the
// command's final logger in the configured log directory.
func bootstrap(c *cli.Command, logName string) (*config.Config, *logger.Logger, error) {
	bootstrapLog, err := setupLogger(os.TempDir(), "speechkit-bootstrap.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return nil, nil, err
	}

	defer func() {
		_ = bootstrapLog.Close()
	}()

	cfg, err := config.Load(bootstrapLog, c.String(flagConfig))
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, logName)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return nil, nil, err
	}

	return cfg, finalLog, nil
}

func closeLogger(log *logger.Logger) {
	closeErr := log.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "speechkit",
		Usage: "Speech-to-text and text-to-speech tooling over Azure Speech",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagConfig,
				Usage: "TOML configuration file (defaults to the central configurator)",
			},
		},
		Commands: []*cli.Command{
			transcribeCommand(in, out),
			watchCommand(out),
			generateCommand(out),
			speakCommand(out),
			voicesCommand(out),
			workerCommand(),
		},
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newApp(os.Stdin, os.Stdout).Run(ctx, os.Args)
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "speechkit exited with error: %v\n", err)
		os.Exit(1)
	}
}
