package azure

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/book-expert/speechkit/internal/recognition"
)

// SourceMicrophone is the segment source reported for live microphone input.
const SourceMicrophone = "microphone"

// Session wraps an SDK recognizer and satisfies recognition.ContinuousRecognizer.
type Session struct {
	recognizer *speech.SpeechRecognizer
	phraseList *speech.PhraseListGrammar
	audio      *audio.AudioConfig
	done       chan struct{}
	doneOnce   sync.Once
}

type sessionOptions struct {
	source   string
	finite   bool
	detailed bool
	phrases  []string
}

func newSession(
	speechConfig *speech.SpeechConfig,
	audioConfig *audio.AudioConfig,
	sink recognition.Events,
	opts sessionOptions,
) (*Session, error) {
	recognizer, err := speech.NewSpeechRecognizerFromConfig(speechConfig, audioConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech recognizer: %w", err)
	}

	session := &Session{
		recognizer: recognizer,
		audio:      audioConfig,
		done:       make(chan struct{}),
	}

	if len(opts.phrases) > 0 {
		phraseErr := session.attachPhrases(opts.phrases)
		if phraseErr != nil {
			session.closeRecognizer()

			return nil, phraseErr
		}
	}

	session.wire(sink, opts)

	return session, nil
}

func (s *Session) attachPhrases(phrases []string) error {
	grammar, err := speech.NewPhraseListGrammarFromRecognizer(s.recognizer)
	if err != nil {
		return fmt.Errorf("failed to create phrase list: %w", err)
	}

	s.phraseList = grammar

	for _, phrase := range phrases {
		err = grammar.AddPhrase(phrase)
		if err != nil {
			return fmt.Errorf("failed to add phrase %q: %w", phrase, err)
		}
	}

	return nil
}

func (s *Session) wire(sink recognition.Events, opts sessionOptions) {
	s.recognizer.SessionStarted(func(e speech.SessionEventArgs) {
		defer e.Close()

		sink.SessionStarted(e.SessionID)
	})

	s.recognizer.SessionStopped(func(e speech.SessionEventArgs) {
		defer e.Close()

		sink.SessionStopped(e.SessionID)

		if opts.finite {
			s.finish()
		}
	})

	s.recognizer.Recognizing(func(e speech.SpeechRecognitionEventArgs) {
		defer e.Close()

		sink.Interim(e.Result.Text)
	})

	s.recognizer.Recognized(func(e speech.SpeechRecognitionEventArgs) {
		defer e.Close()

		switch {
		case e.Result.Reason == common.NoMatch:
			sink.NoMatch()

			return
		case e.Result.Reason != common.RecognizedSpeech:
			return
		case strings.TrimSpace(e.Result.Text) == "":
			sink.NoMatch()

			return
		}

		result := recognition.Result{
			ResultID: e.Result.ResultID,
			Source:   opts.source,
			Text:     e.Result.Text,
			Offset:   e.Result.Offset,
			Duration: e.Result.Duration,
		}

		if opts.detailed {
			result.Detailed = e.Result.Properties.GetProperty(common.SpeechServiceResponseJSONResult, "")
		}

		sink.Segment(result)
	})

	s.recognizer.Canceled(func(e speech.SpeechRecognitionCanceledEventArgs) {
		defer e.Close()

		sink.Canceled(fmt.Sprintf("%v", e.Reason), fmt.Sprintf("%v", e.ErrorCode), e.ErrorDetails)

		if opts.finite {
			s.finish()
		}
	})
}

// Start begins continuous recognition.
func (s *Session) Start() error {
	return <-s.recognizer.StartContinuousRecognitionAsync()
}

// Stop ends continuous recognition and waits for the SDK to acknowledge.
func (s *Session) Stop() error {
	return <-s.recognizer.StopContinuousRecognitionAsync()
}

// Done is closed when a finite input has been fully consumed or canceled.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close releases the SDK handles held by the session, including its audio input.
func (s *Session) Close() {
	s.closeRecognizer()
	s.audio.Close()
}

func (s *Session) closeRecognizer() {
	if s.phraseList != nil {
		s.phraseList.Close()
	}

	s.recognizer.Close()
}

func (s *Session) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

// NewMicrophoneSession opens the default microphone for continuous recognition.
// The returned session never finishes on its own.
func NewMicrophoneSession(
	speechConfig *speech.SpeechConfig,
	sink recognition.Events,
	phrases []string,
	detailed bool,
) (*Session, error) {
	audioConfig, err := audio.NewAudioConfigFromDefaultMicrophoneInput()
	if err != nil {
		return nil, fmt.Errorf("failed to open default microphone: %w", err)
	}

	session, err := newSession(speechConfig, audioConfig, sink, sessionOptions{
		source:   SourceMicrophone,
		detailed: detailed,
		phrases:  phrases,
	})
	if err != nil {
		audioConfig.Close()

		return nil, err
	}

	return session, nil
}
