package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/book-expert/logger"
	"github.com/book-expert/speechkit/internal/recognition"
)

const pushChunkSize = 32 * 1024

var containerFormats = map[recognition.Container]audio.AudioStreamContainerFormat{
	recognition.ContainerMP3:     audio.MP3,
	recognition.ContainerFLAC:    audio.FLAC,
	recognition.ContainerOggOpus: audio.OGGOPUS,
	recognition.ContainerAny:     audio.ANY,
}

// FileTranscriber runs one recognition session per audio file.
type FileTranscriber struct {
	speechConfig *speech.SpeechConfig
	sink         recognition.Events
	phrases      []string
	detailed     bool
	log          *logger.Logger
}

// NewFileTranscriber creates a transcriber that reports results to sink.
// The speech config is owned by the caller.
func NewFileTranscriber(
	speechConfig *speech.SpeechConfig,
	sink recognition.Events,
	phrases []string,
	detailed bool,
	log *logger.Logger,
) *FileTranscriber {
	return &FileTranscriber{
		speechConfig: speechConfig,
		sink:         sink,
		phrases:      phrases,
		detailed:     detailed,
		log:          log,
	}
}

// TranscribeFile recognizes the whole file and returns when the service has
// finished with it or ctx is canceled.
func (t *FileTranscriber) TranscribeFile(ctx context.Context, path string) error {
	container, err := recognition.DetectContainer(path)
	if err != nil {
		return err
	}

	t.log.Info("Transcribing %s (container=%s)", path, container)

	opts := sessionOptions{
		source:   filepath.Base(path),
		finite:   true,
		detailed: t.detailed,
		phrases:  t.phrases,
	}

	if container == recognition.ContainerWAV {
		return t.transcribeWAV(ctx, path, opts)
	}

	return t.transcribeCompressed(ctx, path, container, opts)
}

func (t *FileTranscriber) transcribeWAV(ctx context.Context, path string, opts sessionOptions) error {
	audioConfig, err := audio.NewAudioConfigFromWavFileInput(path)
	if err != nil {
		return fmt.Errorf("failed to open wav input '%s': %w", path, err)
	}

	session, err := newSession(t.speechConfig, audioConfig, t.sink, opts)
	if err != nil {
		audioConfig.Close()

		return err
	}
	defer session.Close()

	return recognition.Run(ctx, session)
}

func (t *FileTranscriber) transcribeCompressed(
	ctx context.Context,
	path string,
	container recognition.Container,
	opts sessionOptions,
) error {
	format, err := audio.GetCompressedFormat(containerFormats[container])
	if err != nil {
		return fmt.Errorf("failed to create %s stream format: %w", container, err)
	}
	defer format.Close()

	stream, err := audio.CreatePushAudioInputStreamFromFormat(format)
	if err != nil {
		return fmt.Errorf("failed to create push stream: %w", err)
	}
	defer stream.Close()

	audioConfig, err := audio.NewAudioConfigFromStreamInput(stream)
	if err != nil {
		return fmt.Errorf("failed to create stream audio config: %w", err)
	}

	session, err := newSession(t.speechConfig, audioConfig, t.sink, opts)
	if err != nil {
		audioConfig.Close()

		return err
	}
	defer session.Close()

	feedErr := make(chan error, 1)

	go func() {
		feedErr <- feedStream(path, stream)
	}()

	runErr := recognition.Run(ctx, session)

	err = <-feedErr
	if err != nil {
		return errors.Join(runErr, err)
	}

	return runErr
}

// feedStream copies the file into the push stream and closes it so the
// recognizer sees end of input.
func feedStream(path string, stream *audio.PushAudioInputStream) error {
	defer stream.CloseStream()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio file '%s': %w", path, err)
	}
	defer file.Close()

	buf := make([]byte, pushChunkSize)

	for {
		n, readErr := file.Read(buf)
		if n > 0 {
			writeErr := stream.Write(buf[:n])
			if writeErr != nil {
				return fmt.Errorf("failed to push audio from '%s': %w", path, writeErr)
			}
		}

		if errors.Is(readErr, io.EOF) {
			return nil
		}

		if readErr != nil {
			return fmt.Errorf("failed to read audio file '%s': %w", path, readErr)
		}
	}
}
