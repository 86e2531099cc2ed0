// Package recognition turns speech recognizer events into console output and
// published segments, and drives a continuous recognition session until it is
// interrupted.
package recognition

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speechkit/internal/core"
)

const publishTimeout = 5 * time.Second

// Events is the sink for recognizer callbacks. Implementations must be safe
// for use from the recognizer's callback threads.
type Events interface {
	Interim(text string)
	Segment(result Result)
	NoMatch()
	SessionStarted(sessionID string)
	SessionStopped(sessionID string)
	Canceled(reason, code, details string)
}

// Result is a finalized recognition result as delivered by the recognizer.
type Result struct {
	ResultID string
	Source   string
	Text     string
	// Detailed holds the raw detailed JSON payload, if the recognizer was
	// configured to produce one.
	Detailed string
	Offset   time.Duration
	Duration time.Duration
}

// Printer writes tagged lines for every event and optionally publishes
// finalized segments.
type Printer struct {
	mu        sync.Mutex
	out       io.Writer
	log       *logger.Logger
	publisher core.SegmentPublisher
	now       func() time.Time
}

// NewPrinter creates a Printer that writes to out.
func NewPrinter(out io.Writer, log *logger.Logger) *Printer {
	return &Printer{
		out: out,
		log: log,
		now: time.Now,
	}
}

// WithPublisher attaches a segment publisher and returns the Printer.
func (p *Printer) WithPublisher(publisher core.SegmentPublisher) *Printer {
	p.publisher = publisher

	return p
}

// Interim prints partial text for a segment still being formed.
func (p *Printer) Interim(text string) {
	p.println("  [Interim] " + text)
}

// Segment prints the final text of a segment, its alternates when a detailed
// payload is present, and publishes it.
func (p *Printer) Segment(result Result) {
	p.println("[Segment] " + result.Text)

	var alternates []string

	if result.Detailed != "" {
		detailed, err := ParseDetailed([]byte(result.Detailed))
		if err != nil {
			p.log.Warn("Ignoring malformed detailed result %s: %v", result.ResultID, err)
		} else {
			alternates = detailed.Alternates(result.Text)
			for _, alt := range alternates {
				p.println("[Segment]   alt: " + alt)
			}
		}
	}

	if p.publisher == nil {
		return
	}

	segment := core.Segment{
		ResultID:   result.ResultID,
		Source:     result.Source,
		Text:       result.Text,
		Alternates: alternates,
		Offset:     result.Offset,
		Duration:   result.Duration,
		Recognized: p.now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := p.publisher.Publish(ctx, segment)
	if err != nil {
		p.log.Error("Failed to publish segment %s: %v", result.ResultID, err)
	}
}

// NoMatch reports a segment in which no speech could be recognized.
func (p *Printer) NoMatch() {
	p.println("[Segment] (no match)")
}

// SessionStarted reports the start of a recognition session.
func (p *Printer) SessionStarted(sessionID string) {
	p.log.Info("Recognition session %s started", sessionID)
	p.println("[Session] Started")
}

// SessionStopped reports the end of a recognition session.
func (p *Printer) SessionStopped(sessionID string) {
	p.log.Info("Recognition session %s stopped", sessionID)
	p.println("[Session] Stopped")
}

// Canceled reports a cancellation or error from the recognizer.
func (p *Printer) Canceled(reason, code, details string) {
	p.log.Error("Recognition canceled: reason=%s code=%s details=%s", reason, code, details)
	p.println(fmt.Sprintf("[Canceled] %s %s %s", reason, code, details))
}

// Printf writes a free-form line to the console under the printer's lock.
func (p *Printer) Printf(format string, args ...any) {
	p.println(fmt.Sprintf(format, args...))
}

func (p *Printer) println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.out, line)
}
