// Package nats publishes deck lifecycle events to NATS JetStream.
package nats

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

const (
	// StreamName is the stream holding deck events.
	StreamName = "DECKS"

	// SubjectPrefix prefixes every deck event subject.
	SubjectPrefix = "decks"

	clientName = "salesdeck-api"
	retention  = 90 * 24 * time.Hour
)

// ErrPartialTLS is returned when only some of the TLS files are configured.
var ErrPartialTLS = errors.New("NATS TLS needs a CA file, a cert file and a key file")

// Config holds the event bus connection settings.
type Config struct {
	URL      string
	CAFile   string
	CertFile string
	KeyFile  string
	Token    string
}

func (c Config) tlsFiles() (bool, error) {
	set := 0
	for _, f := range []string{c.CAFile, c.CertFile, c.KeyFile} {
		if f != "" {
			set++
		}
	}
	switch set {
	case 0:
		return false, nil
	case 3:
		return true, nil
	default:
		return false, ErrPartialTLS
	}
}

// Publisher sends deck events to the DECKS stream.
type Publisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logger.Logger
}

// Connect dials NATS, makes sure the DECKS stream exists and returns a
// publisher for it.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Publisher, error) {
	opts, err := connectOptions(cfg, log)
	if err != nil {
		return nil, err
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{conn: nc, js: js, logger: log}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}

	log.Info("deck event stream ready",
		zap.String("url", nc.ConnectedUrl()),
		zap.String("stream", StreamName),
	)
	return p, nil
}

func connectOptions(cfg Config, log *logger.Logger) ([]nats.Option, error) {
	opts := []nats.Option{
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		// Deck events are small; 1 MiB covers a long outage.
		nats.ReconnectBufSize(1 << 20),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("event bus disconnected, deck events are buffered", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("event bus reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error("event bus error", zap.Error(err))
		}),
	}

	useTLS, err := cfg.tlsFiles()
	if err != nil {
		return nil, err
	}
	if useTLS {
		tlsConfig, err := loadTLS(cfg.CAFile, cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, nats.Secure(tlsConfig))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	return opts, nil
}

func loadTLS(caFile, certFile, keyFile string) (*tls.Config, error) {
	caPEM, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read NATS CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no certificates in NATS CA file %s", caFile)
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load NATS client cert: %w", err)
	}
	return &tls.Config{
		RootCAs:      pool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func streamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Deck generation events",
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      retention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  2 * time.Minute,
	}
}

func (p *Publisher) ensureStream(ctx context.Context) error {
	_, err := p.js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("look up %s stream: %w", StreamName, err)
	}
	if _, err := p.js.CreateStream(ctx, streamConfig()); err != nil {
		return fmt.Errorf("create %s stream: %w", StreamName, err)
	}
	return nil
}

// EventSubject returns decks.<user>.<kind>, where kind is the event type
// without its "deck." prefix.
func EventSubject(userID string, eventType model.EventType) string {
	kind := strings.TrimPrefix(string(eventType), "deck.")
	return SubjectPrefix + "." + userID + "." + kind
}

// PublishDeckEvent stores event in the stream and returns its sequence.
// The event ID doubles as the message ID, so a retried publish is dropped
// as a duplicate.
func (p *Publisher) PublishDeckEvent(ctx context.Context, event *model.DeckEvent) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("encode deck event: %w", err)
	}

	ack, err := p.js.Publish(ctx, EventSubject(event.UserID, event.Type), data,
		jetstream.WithMsgID(event.ID),
		jetstream.WithExpectStream(StreamName),
	)
	if err != nil {
		return 0, fmt.Errorf("publish deck event %s: %w", event.DeckID, err)
	}
	if ack.Duplicate {
		p.logger.Debug("duplicate deck event dropped", zap.String("event_id", event.ID))
	}
	return ack.Sequence, nil
}

// IsConnected reports whether the connection is currently up.
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close flushes buffered events and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.FlushTimeout(5 * time.Second); err != nil {
		p.logger.Warn("failed to flush deck events", zap.Error(err))
	}
	p.conn.Close()
}
