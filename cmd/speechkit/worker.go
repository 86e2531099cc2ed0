package main

import (
	"context"
	"errors"

	"github.com/book-expert/speechkit/internal/azure"
	"github.com/book-expert/speechkit/internal/catalog"
	"github.com/book-expert/speechkit/internal/worker"
	"github.com/urfave/cli/v3"
)

// ErrNATSRequired indicates that the worker was started without a NATS URL.
var ErrNATSRequired = errors.New("worker requires NATS_URL")

func workerCommand() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "Serve synthesis requests over NATS and store the audio in JetStream",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := bootstrap(c, "speechkit-worker.log")
			if err != nil {
				return err
			}
			defer closeLogger(log)

			if !cfg.NATSEnabled() {
				return ErrNATSRequired
			}

			speechConfig, err := azure.NewSynthesisConfig(cfg)
			if err != nil {
				return err
			}
			defer speechConfig.Close()

			natsConnection, err := connectNATS(cfg)
			if err != nil {
				return err
			}
			defer natsConnection.Close()

			store, err := openAudioStore(natsConnection, cfg)
			if err != nil {
				return err
			}

			synthesisWorker, err := worker.NewNatsWorker(
				natsConnection,
				cfg.NATS.SynthesisSubject,
				store,
				azure.NewSynthesizer(speechConfig, log),
				catalog.DatasetVoices,
				newRand(0),
				log,
				cfg.NATS.Concurrency,
			)
			if err != nil {
				return err
			}

			log.System("speechkit worker started. Listening for jobs on subject: %s", cfg.NATS.SynthesisSubject)

			return synthesisWorker.Run(ctx)
		},
	}
}
