// Package events publishes decision results to NATS so downstream packaging
// tooling (archive creation, manifest publication) can react without polling
// manifests.
package events

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	relerrors "git.home.luguber.info/inful/relver/internal/errors"
	"git.home.luguber.info/inful/relver/internal/engine"
	"git.home.luguber.info/inful/relver/internal/logfields"
)

// Publisher sends decision events on relver.decisions.<artifact> subjects.
type Publisher struct {
	conn          *nats.Conn
	subjectPrefix string
}

// Connect establishes the NATS connection used for publishing.
func Connect(url, subjectPrefix string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("relver"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, relerrors.PublishError(subjectPrefix, fmt.Errorf("connect %s: %w", url, err))
	}

	slog.Info("Connected to NATS for decision events", "url", url, "subject_prefix", subjectPrefix)
	return &Publisher{conn: conn, subjectPrefix: subjectPrefix}, nil
}

// Publish sends one decision as JSON. Failures are retryable: losing an
// event never invalidates the decision itself, and the orchestrator owns
// the retry policy.
func (p *Publisher) Publish(dec *engine.Decision) error {
	subject := fmt.Sprintf("%s.%s", p.subjectPrefix, dec.Artifact)
	payload, err := dec.ToJSON()
	if err != nil {
		return relerrors.PublishError(subject, err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return relerrors.PublishError(subject, err)
	}
	if err := p.conn.Flush(); err != nil {
		return relerrors.PublishError(subject, err)
	}

	slog.Debug("Published decision event",
		logfields.Artifact(dec.Artifact),
		logfields.Decision(string(dec.Kind)),
		slog.String("subject", subject))
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
