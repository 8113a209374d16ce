package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/dropspots/internal/core/domain"
)

// Subjects carrying spot lifecycle events.
const (
	SubjectSpotSubmitted = "spots.submitted"
	SubjectSpotReviewed  = "spots.reviewed"
	SubjectSpotsAll      = "spots.>"
)

// StreamSpots is the JetStream stream backing every spot subject.
const StreamSpots = "SPOTS"

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the spot stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:      StreamSpots,
		Subjects:  []string{SubjectSpotsAll},
		Retention: nats.InterestPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

func (p *Publisher) PublishSpotSubmitted(ctx context.Context, event *domain.SpotEvent) error {
	return p.publish(ctx, SubjectSpotSubmitted, event)
}

func (p *Publisher) PublishSpotReviewed(ctx context.Context, event *domain.SpotEvent) error {
	return p.publish(ctx, SubjectSpotReviewed, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, event *domain.SpotEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// Msg-Id lets JetStream drop a duplicate publish of the same transition.
	_, err = p.js.Publish(subject, data,
		nats.Context(ctx),
		nats.MsgId(subject+":"+event.SpotID+":"+string(event.Status)),
	)
	return err
}

// Conn exposes the underlying connection for readiness checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection (e.g. for the WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("dropspots"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
