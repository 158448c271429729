// Package notify publishes build results to NATS.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

// DefaultSubject is used when Config.Subject is empty.
const DefaultSubject = "sitebuilder.builds"

// Config configures the publisher. An empty URL disables publishing.
type Config struct {
	URL     string
	Subject string
	// Timeout bounds each connect attempt. Zero uses the nats default.
	Timeout time.Duration
	// Retry governs reconnect attempts for the initial connection. The zero
	// value tries once.
	Retry retry.Policy
}

// Message is the JSON body published for each finished build.
type Message struct {
	BuildID    string    `json:"build_id,omitempty"`
	Trigger    string    `json:"trigger"`
	Path       string    `json:"path,omitempty"`
	Status     string    `json:"status"`
	Documents  int       `json:"documents"`
	Copied     int       `json:"copied"`
	Warnings   int       `json:"warnings"`
	DurationMS int64     `json:"duration_ms"`
	Category   string    `json:"error_category,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewMessage converts a rebuild result into a Message.
func NewMessage(res watch.Result) Message {
	msg := Message{
		Trigger:   string(res.Request.Trigger),
		Path:      res.Request.Path,
		Status:    "succeeded",
		Timestamp: time.Now().UTC(),
	}
	if r := res.Report; r != nil {
		msg.BuildID = r.BuildID
		msg.Documents = r.Documents
		msg.Copied = r.Copied
		msg.Warnings = r.Warnings
		msg.DurationMS = r.Duration.Milliseconds()
	}
	if res.Err != nil {
		msg.Status = "failed"
		msg.Category = string(errors.GetCategory(res.Err))
		msg.Error = res.Err.Error()
	}
	return msg
}

// Publisher sends build results on a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// New connects to cfg.URL. With an empty URL the returned publisher drops every message.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	subject := cfg.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	p := &Publisher{subject: subject, logger: slog.Default()}
	if cfg.URL == "" {
		return p, nil
	}

	opts := []nats.Option{nats.Name("sitebuilder")}
	if cfg.Timeout > 0 {
		opts = append(opts, nats.Timeout(cfg.Timeout))
	}
	err := cfg.Retry.Do(ctx, func() error {
		conn, err := nats.Connect(cfg.URL, opts...)
		if err != nil {
			return errors.NetworkError("failed to connect to NATS").
				WithCause(err).
				WithContext("url", cfg.URL).
				Build()
		}
		p.conn = conn
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info("NATS build notifications enabled", logfields.URL(cfg.URL), slog.String("subject", subject))
	return p, nil
}

// WithLogger sets the logger.
func (p *Publisher) WithLogger(l *slog.Logger) *Publisher {
	if l != nil {
		p.logger = l
	}
	return p
}

// Enabled reports whether messages are actually sent.
func (p *Publisher) Enabled() bool { return p != nil && p.conn != nil }

// Subject returns the subject messages are published on.
func (p *Publisher) Subject() string { return p.subject }

// Publish sends msg.
func (p *Publisher) Publish(msg Message) error {
	if !p.Enabled() {
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.InternalError("failed to marshal build notification").WithCause(err).Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.NetworkError("failed to publish build notification").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}
	return nil
}

// BuildFinished implements watch.Observer. Publish failures are logged only.
func (p *Publisher) BuildFinished(_ context.Context, res watch.Result) {
	if !p.Enabled() {
		return
	}
	msg := NewMessage(res)
	if err := p.Publish(msg); err != nil {
		p.logger.Warn("Build notification not sent", logfields.BuildID(msg.BuildID), logfields.Error(err))
		return
	}
	p.logger.Debug("Published build notification", logfields.BuildID(msg.BuildID), slog.String("status", msg.Status))
}

// Close drains and closes the connection.
func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return errors.NetworkError("failed to drain NATS connection").WithCause(err).Build()
	}
	return nil
}
