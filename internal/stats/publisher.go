// Package stats is the persistence boundary: match events and end-of-match
// summaries are published to a JetStream bus for the stats service to
// store. The core itself keeps nothing durable.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/boton-fun/headsoccer/internal/events"
	"github.com/boton-fun/headsoccer/internal/room"
)

// Config tunes the JetStream publisher.
type Config struct {
	URL           string        `yaml:"url"`
	StreamName    string        `yaml:"stream_name"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	MaxAge        time.Duration `yaml:"max_age"`
}

// DefaultConfig returns the stock stream settings.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		StreamName:    "MATCH_EVENTS",
		SubjectPrefix: "match",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		MaxAge:        7 * 24 * time.Hour,
	}
}

// JetStreamPublisher publishes over a durable stream with MsgID dedupe.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config Config
}

// NewJetStreamPublisher connects and ensures the stream exists.
func NewJetStreamPublisher(cfg Config) (*JetStreamPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &JetStreamPublisher{nc: nc, js: js, config: cfg}
	if err := p.ensureStream(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return p, nil
}

func (p *JetStreamPublisher) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        p.config.StreamName,
		Description: "Match event and summary stream",
		Subjects:    []string{fmt.Sprintf("%s.>", p.config.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      p.config.MaxAge,
		Storage:     jetstream.FileStorage,
	}
	if _, err := p.js.Stream(ctx, p.config.StreamName); err != nil {
		if _, err = p.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", p.config.StreamName).Msg("created JetStream stream")
	}
	return nil
}

// PublishEvent publishes one match event envelope.
func (p *JetStreamPublisher) PublishEvent(ctx context.Context, env *events.Envelope) error {
	subject := fmt.Sprintf("%s.events.%s", p.config.SubjectPrefix, env.Type)
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = p.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{string(env.Type)},
			"Room-ID":    []string{env.RoomID},
			"Event-ID":   []string{env.ID},
		},
	}, jetstream.WithMsgID(env.ID))
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}
	return nil
}

// PublishSummary publishes the durable match-end summary.
func (p *JetStreamPublisher) PublishSummary(ctx context.Context, sum room.Summary) error {
	subject := fmt.Sprintf("%s.summary", p.config.SubjectPrefix)
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	ack, err := p.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Room-ID": []string{sum.RoomID},
		},
	}, jetstream.WithMsgID(sum.RoomID))
	if err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}

	log.Info().
		Str("room_id", sum.RoomID).
		Str("subject", subject).
		Uint64("sequence", ack.Sequence).
		Msg("match summary published")
	return nil
}

// Close shuts the NATS connection down.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// NopPublisher discards everything; it backs tests and offline runs.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, *events.Envelope) error { return nil }
func (NopPublisher) PublishSummary(context.Context, room.Summary) error   { return nil }
