// Package notify presents "call blocked" notifications to the user.
package notify

import (
	"fmt"
	"time"

	"github.com/haukened/callscreen/internal/screen/common/clock"
	"github.com/haukened/callscreen/internal/screen/common/log"
)

const (
	ChannelID   = "blocked_calls"
	ChannelName = "Blocked Calls"
	// SequenceName is the persisted counter behind notification ids.
	SequenceName = "notification_seq"
	// FirstID is the id of the first notification ever presented.
	FirstID = 1000
)

// Notification is one posted notification.
type Notification struct {
	ID       uint64
	Channel  string
	Title    string
	Text     string
	PostedAt time.Time
}

// Sink delivers a built notification to whatever displays it.
type Sink interface {
	Post(n Notification) error
}

// Sequencer hands out persisted, strictly increasing values starting at 1.
type Sequencer interface {
	NextSequence(name string) (uint64, error)
}

// Options configures a Presenter. Clock defaults to the real clock and Sink
// to a LogSink.
type Options struct {
	Sequence Sequencer
	Clock    clock.Clock
	Sink     Sink
	Logger   log.Logger
}

// Presenter assigns ids and posts notifications. Failures are logged and
// dropped; the caller never sees them.
type Presenter struct {
	seq    Sequencer
	clock  clock.Clock
	sink   Sink
	logger log.Logger
}

// New returns a Presenter over opts.
func New(opts Options) *Presenter {
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	logger := log.OrNoop(opts.Logger)
	sink := opts.Sink
	if sink == nil {
		sink = NewLogSink(logger)
	}
	return &Presenter{seq: opts.Sequence, clock: clk, sink: sink, logger: logger}
}

// Present builds and posts a notification for a blocked call from number.
func (p *Presenter) Present(number string) {
	id, err := p.nextID()
	if err != nil {
		p.logger.Error(map[string]any{"number": number, "error": err}, "notification_id_failed")
		return
	}
	n := Build(id, number, p.clock.Now())
	if err := p.sink.Post(n); err != nil {
		p.logger.Error(map[string]any{"id": n.ID, "error": err}, "notification_post_failed")
	}
}

func (p *Presenter) nextID() (uint64, error) {
	if p.seq == nil {
		return 0, fmt.Errorf("no notification sequence configured")
	}
	v, err := p.seq.NextSequence(SequenceName)
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", SequenceName, err)
	}
	return FirstID + v - 1, nil
}

// Build renders the notification text for a blocked number.
func Build(id uint64, number string, now time.Time) Notification {
	return Notification{
		ID:       id,
		Channel:  ChannelID,
		Title:    "Call blocked",
		Text:     fmt.Sprintf("Blocked call from %s", number),
		PostedAt: now,
	}
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger log.Logger
}

// NewLogSink returns a LogSink; a nil logger discards.
func NewLogSink(logger log.Logger) *LogSink {
	return &LogSink{logger: log.OrNoop(logger)}
}

// Post logs n at info level. It never fails.
func (s *LogSink) Post(n Notification) error {
	s.logger.Info(map[string]any{
		"id":      n.ID,
		"channel": n.Channel,
		"title":   n.Title,
		"text":    n.Text,
		"posted":  n.PostedAt.Format(time.RFC3339),
	}, "notification_posted")
	return nil
}
