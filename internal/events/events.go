// Package events publishes service events to NATS. Publishing is optional;
// the nil *Publisher drops everything, so callers never branch on whether
// eventing is configured.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/clomonitor/internal/logfields"
	"git.home.luguber.info/inful/clomonitor/internal/model"
)

const (
	subjectRatingChanged    = "project.rating_changed"
	subjectTrackerCompleted = "tracker.completed"
)

// RatingChangeEvent is emitted when a tracking pass moves a project's
// rating letter.
type RatingChangeEvent struct {
	Foundation string `json:"foundation"`
	Project    string `json:"project"`
	Before     string `json:"before,omitempty"`
	After      string `json:"after"`
}

// TrackerCompletedEvent is emitted after each full tracker run.
type TrackerCompletedEvent struct {
	Repositories int   `json:"repositories"`
	Failed       int   `json:"failed"`
	DurationMS   int64 `json:"duration_ms"`
}

// Publisher publishes events on subjects under a common prefix.
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

// NewPublisher connects to the NATS server at url. Subjects are prefixed
// with prefix, defaulting to the service name.
func NewPublisher(url, prefix string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name(model.ServiceName))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	if prefix == "" {
		prefix = model.ServiceName
	}
	slog.Info("Events publisher connected", logfields.URL(url))
	return &Publisher{conn: conn, prefix: prefix}, nil
}

// RatingChanged publishes a rating change event.
func (p *Publisher) RatingChanged(ev RatingChangeEvent) error {
	return p.publish(subjectRatingChanged, ev)
}

// TrackerCompleted publishes a tracker run summary.
func (p *Publisher) TrackerCompleted(ev TrackerCompletedEvent) error {
	return p.publish(subjectTrackerCompleted, ev)
}

func (p *Publisher) publish(suffix string, payload any) error {
	if p == nil || p.conn == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	subject := p.prefix + "." + suffix
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	slog.Debug("Published event", logfields.Subject(subject))
	return nil
}

// Close flushes pending publishes and drops the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Flush(); err != nil {
		slog.Warn("Flushing NATS connection", logfields.Error(err))
	}
	p.conn.Close()
}
