// speechkit-client submits a text to a running speechkit worker and saves the reply audio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/speechkit/internal/core"
	"github.com/book-expert/speechkit/internal/objectstore"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Flag names.
const (
	flagText    = "text"
	flagFile    = "file"
	flagVoice   = "voice"
	flagOutput  = "output"
	flagNATSURL = "nats-url"
	flagSubject = "subject"
	flagBucket  = "bucket"
	flagTimeout = "timeout"
)

// Flag descriptions.
const (
	flagTextDesc    = "Text to convert to speech"
	flagFileDesc    = "File containing the text to convert to speech"
	flagVoiceDesc   = "Voice name (empty lets the worker pick one)"
	flagOutputDesc  = "Output file path (.wav)"
	flagNATSURLDesc = "NATS server URL"
	flagSubjectDesc = "Subject the worker listens on"
	flagBucketDesc  = "Object store bucket shared with the worker"
	flagTimeoutDesc = "How long to wait for the worker's reply"
)

// Defaults.
const (
	defaultOutputFile = "output.wav"
	defaultSubject    = "speech.synthesis.requested"
	defaultBucket     = "SPEECH_AUDIO"
	defaultTimeout    = 2 * time.Minute
	logFileName       = "speechkit-client.log"
	outputPermissions = 0o644
)

var (
	// ErrEitherTextOrFile indicates that neither -text nor -file was given.
	ErrEitherTextOrFile = errors.New("either -text or -file must be provided")
	// ErrCannotSpecifyBoth indicates that both -text and -file were given.
	ErrCannotSpecifyBoth = errors.New("cannot specify both -text and -file")
	// ErrEmptyText indicates that the text to submit is blank.
	ErrEmptyText = errors.New("text to synthesize is empty")
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	text    string
	file    string
	voice   string
	output  string
	natsURL string
	subject string
	bucket  string
	timeout time.Duration
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags(flagSet *flag.FlagSet, args []string) (appFlags, error) {
	var flags appFlags

	flagSet.StringVar(&flags.text, flagText, "", flagTextDesc)
	flagSet.StringVar(&flags.file, flagFile, "", flagFileDesc)
	flagSet.StringVar(&flags.voice, flagVoice, "", flagVoiceDesc)
	flagSet.StringVar(&flags.output, flagOutput, defaultOutputFile, flagOutputDesc)
	flagSet.StringVar(&flags.natsURL, flagNATSURL, nats.DefaultURL, flagNATSURLDesc)
	flagSet.StringVar(&flags.subject, flagSubject, defaultSubject, flagSubjectDesc)
	flagSet.StringVar(&flags.bucket, flagBucket, defaultBucket, flagBucketDesc)
	flagSet.DurationVar(&flags.timeout, flagTimeout, defaultTimeout, flagTimeoutDesc)

	err := flagSet.Parse(args)
	if err != nil {
		return flags, fmt.Errorf("failed to parse flags: %w", err)
	}

	return flags, flags.validate()
}

func (f appFlags) validate() error {
	if f.text == "" && f.file == "" {
		return ErrEitherTextOrFile
	}

	if f.text != "" && f.file != "" {
		return ErrCannotSpecifyBoth
	}

	return nil
}

// loadText returns the text to submit from -text or -file.
func loadText(flags appFlags) (string, error) {
	text := flags.text

	if flags.file != "" {
		data, err := os.ReadFile(flags.file)
		if err != nil {
			return "", fmt.Errorf("failed to read text file '%s': %w", flags.file, err)
		}

		text = string(data)
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	return text, nil
}

// submit uploads text, asks the worker to synthesize it and writes the reply
// audio to flags.output.
func submit(
	ctx context.Context,
	natsConnection *nats.Conn,
	store core.ObjectStore,
	flags appFlags,
	text string,
	log *logger.Logger,
) (*events.AudioChunkCreatedEvent, error) {
	textKey := uuid.NewString() + ".txt"

	err := store.Upload(ctx, textKey, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to upload text: %w", err)
	}

	request := &events.TextProcessedEvent{
		Header: events.EventHeader{
			Timestamp:  time.Now().UTC(),
			WorkflowID: uuid.NewString(),
			EventID:    uuid.NewString(),
		},
		TextKey:    textKey,
		PageNumber: 1,
		TotalPages: 1,
		Voice:      flags.voice,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	log.Info("Submitting %s to %s (workflow %s)", textKey, flags.subject, request.Header.WorkflowID)

	replyMsg, err := natsConnection.RequestWithContext(ctx, flags.subject, requestData)
	if err != nil {
		return nil, fmt.Errorf("no reply from worker on %s: %w", flags.subject, err)
	}

	var reply events.AudioChunkCreatedEvent

	err = json.Unmarshal(replyMsg.Data, &reply)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal reply: %w", err)
	}

	audio, err := store.Download(ctx, reply.AudioKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download audio '%s': %w", reply.AudioKey, err)
	}

	err = os.WriteFile(flags.output, audio, outputPermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to write '%s': %w", flags.output, err)
	}

	log.Info("Saved %s (%d bytes) from %s", flags.output, len(audio), reply.AudioKey)

	return &reply, nil
}

func run(args []string, out io.Writer) error {
	flags, err := parseFlags(flag.NewFlagSet("speechkit-client", flag.ContinueOnError), args)
	if err != nil {
		return err
	}

	text, err := loadText(flags)
	if err != nil {
		return err
	}

	log, err := logger.New(os.TempDir(), logFileName)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() {
		_ = log.Close()
	}()

	natsConnection, err := nats.Connect(flags.natsURL, nats.Name("speechkit-client"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", flags.natsURL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, flags.bucket)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
	defer cancel()

	reply, err := submit(ctx, natsConnection, store, flags, text, log)
	if err != nil {
		log.Error("Request failed: %v", err)

		return err
	}

	fmt.Fprintf(out, "Generated: %s (audio key %s)\n", flags.output, reply.AudioKey)

	return nil
}

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
