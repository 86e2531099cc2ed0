package main

import (
	"fmt"

	"github.com/book-expert/speechkit/internal/config"
	"github.com/book-expert/speechkit/internal/objectstore"
	"github.com/nats-io/nats.go"
)

func connectNATS(cfg *config.Config) (*nats.Conn, error) {
	natsConnection, err := nats.Connect(cfg.NATS.URL, nats.Name("speechkit"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	return natsConnection, nil
}

func openAudioStore(natsConnection *nats.Conn, cfg *config.Config) (*objectstore.NatsObjectStore, error) {
	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	return objectstore.New(jetstreamContext, cfg.NATS.AudioBucket)
}
