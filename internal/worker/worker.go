// Package worker provides a NATS worker that turns text requests into synthesized audio.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/speechkit/internal/catalog"
	"github.com/book-expert/speechkit/internal/core"
	"github.com/book-expert/speechkit/internal/dataset"
	"github.com/book-expert/speechkit/internal/textprep"
	"github.com/gammazero/workerpool"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	handleMessageTimeout = 60 * time.Second
	drainTimeout         = 5 * time.Second
	drainPollInterval    = 20 * time.Millisecond
)

var (
	// ErrUnsupportedVoice indicates that the requested voice is not in the catalog.
	ErrUnsupportedVoice = errors.New("unsupported voice")
	// ErrEmptyText indicates that the downloaded text has nothing to speak.
	ErrEmptyText = errors.New("text to synthesize is empty")
	// ErrNoVoices indicates an empty voice catalog.
	ErrNoVoices = errors.New("voice catalog is empty")
)

// NatsWorker listens for synthesis requests on a NATS subject and replies with the audio key.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	store          core.ObjectStore
	synth          core.Synthesizer
	voices         []string
	normalizer     *textprep.Normalizer
	rng            dataset.Source
	rngMu          sync.Mutex
	log            *logger.Logger
	concurrency    int
	ready          chan struct{}
}

// NewNatsWorker creates a new instance of a NATS worker. Requests with an
// empty voice get a random voice from voices.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	store core.ObjectStore,
	synth core.Synthesizer,
	voices []string,
	rng dataset.Source,
	log *logger.Logger,
	concurrency int,
) (*NatsWorker, error) {
	if len(voices) == 0 {
		return nil, ErrNoVoices
	}

	if concurrency < 1 {
		concurrency = 1
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		store:          store,
		synth:          synth,
		voices:         voices,
		normalizer:     textprep.New(),
		rng:            rng,
		log:            log,
		concurrency:    concurrency,
		ready:          make(chan struct{}),
	}, nil
}

// Ready is closed once the worker is subscribed.
func (w *NatsWorker) Ready() <-chan struct{} {
	return w.ready
}

// Run starts the worker and begins listening for messages. It returns after
// ctx is done, the subscription is drained and in-flight jobs finish.
func (w *NatsWorker) Run(ctx context.Context) error {
	pool := workerpool.New(w.concurrency)

	var (
		poolMu  sync.Mutex
		stopped bool
	)

	sub, err := w.natsConnection.Subscribe(w.subject, func(msg *nats.Msg) {
		poolMu.Lock()
		defer poolMu.Unlock()

		if stopped {
			return
		}

		pool.Submit(func() { w.handleMessage(msg) })
	})
	if err != nil {
		pool.StopWait()

		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	close(w.ready)
	w.log.Info("Synthesis worker listening on %s (concurrency=%d)", w.subject, w.concurrency)

	<-ctx.Done()

	drainErr := sub.Drain()
	waitForDrain(sub)

	poolMu.Lock()
	stopped = true
	poolMu.Unlock()

	pool.StopWait()

	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

// waitForDrain blocks until the subscription has delivered its pending
// messages, bounded by drainTimeout.
func waitForDrain(sub *nats.Subscription) {
	deadline := time.Now().Add(drainTimeout)

	for sub.IsValid() && time.Now().Before(deadline) {
		time.Sleep(drainPollInterval)
	}
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := parseEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse event: %v", err)

		return
	}

	audioKey, processErr := w.processJob(ctx, event)
	if processErr != nil {
		w.log.Error("Failed to process synthesis job for workflow %s: %v", event.Header.WorkflowID, processErr)

		return
	}

	replyEvent := &events.AudioChunkCreatedEvent{
		Header:     event.Header,
		AudioKey:   audioKey,
		PageNumber: event.PageNumber,
		TotalPages: event.TotalPages,
	}

	err = publishReplyEvent(msg, replyEvent)
	if err != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", event.Header.WorkflowID, err)
	}
}

// processJob downloads the text, synthesizes it and uploads the audio.
func (w *NatsWorker) processJob(ctx context.Context, event *events.TextProcessedEvent) (string, error) {
	voice, err := w.resolveVoice(event.Voice)
	if err != nil {
		return "", err
	}

	textData, err := w.store.Download(ctx, event.TextKey)
	if err != nil {
		return "", fmt.Errorf("failed to download text data for key '%s': %w", event.TextKey, err)
	}

	text := w.normalizer.Normalize(string(textData))
	if text == "" {
		return "", fmt.Errorf("%w: key '%s'", ErrEmptyText, event.TextKey)
	}

	tempDir, err := os.MkdirTemp("", "speechkit-worker-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	audioKey := uuid.NewString() + ".wav"
	outPath := filepath.Join(tempDir, audioKey)

	err = w.synth.SynthesizeSSML(ctx, w.buildSSML(text, voice), outPath)
	if err != nil {
		return "", fmt.Errorf("failed to synthesize text for key '%s': %w", event.TextKey, err)
	}

	err = w.store.UploadFile(ctx, audioKey, outPath)
	if err != nil {
		return "", fmt.Errorf("failed to upload audio data for key '%s': %w", audioKey, err)
	}

	w.log.Info("Synthesized page %d/%d of workflow %s with %s as %s",
		event.PageNumber, event.TotalPages, event.Header.WorkflowID, voice, audioKey)

	return audioKey, nil
}

func (w *NatsWorker) resolveVoice(requested string) (string, error) {
	if requested == "" {
		w.rngMu.Lock()
		defer w.rngMu.Unlock()

		return w.voices[w.rng.IntN(len(w.voices))], nil
	}

	for _, voice := range w.voices {
		if voice == requested {
			return voice, nil
		}
	}

	return "", fmt.Errorf("%w: '%s'", ErrUnsupportedVoice, requested)
}

func (w *NatsWorker) buildSSML(text, voice string) string {
	w.rngMu.Lock()
	defer w.rngMu.Unlock()

	return dataset.BuildSSML(text, voice, w.rng, dataset.SSMLOptions{Lang: catalog.LocaleOf(voice)})
}

// publishReplyEvent marshals and responds with the AudioChunkCreatedEvent.
func publishReplyEvent(msg *nats.Msg, replyEvent *events.AudioChunkCreatedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func parseEvent(msg *nats.Msg) (*events.TextProcessedEvent, error) {
	var event events.TextProcessedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return &event, nil
}
