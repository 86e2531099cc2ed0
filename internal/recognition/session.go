package recognition

import (
	"context"
	"fmt"
)

// ContinuousRecognizer is a recognizer that runs until stopped.
// Done is closed when the recognizer finishes on its own, for example at the
// end of a file. A live microphone recognizer returns a channel that is
// never closed.
type ContinuousRecognizer interface {
	Start() error
	Stop() error
	Done() <-chan struct{}
}

// Run starts rec and blocks until ctx is canceled or rec finishes, then stops
// the recognizer before returning.
func Run(ctx context.Context, rec ContinuousRecognizer) error {
	err := rec.Start()
	if err != nil {
		return fmt.Errorf("failed to start continuous recognition: %w", err)
	}

	select {
	case <-ctx.Done():
	case <-rec.Done():
	}

	stopErr := rec.Stop()
	if stopErr != nil {
		return fmt.Errorf("failed to stop continuous recognition: %w", stopErr)
	}

	return nil
}
