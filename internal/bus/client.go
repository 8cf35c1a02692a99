package bus

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sowri347/bot-interview/internal/config"
)

// StreamName is the JetStream stream that retains domain events.
const StreamName = "INTERVIEW_EVENTS"

// Client wraps NATS connection and JetStream context with minimal helpers.
type Client struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	prefix  string
	durable bool
	log     *slog.Logger
}

func Connect(ctx context.Context, cfg config.BusConfig, log *slog.Logger) (*Client, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("no NATS servers configured")
	}

	options := []nats.Option{
		nats.Name("interviewd"),
		nats.Timeout(time.Duration(cfg.ConnectTimeout) * time.Millisecond),
	}

	if cfg.Username != "" || cfg.Password != "" {
		options = append(options, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.Token != "" {
		options = append(options, nats.Token(cfg.Token))
	}
	if cfg.TLSInsecure {
		options = append(options, nats.Secure(&tls.Config{InsecureSkipVerify: true}))
	}

	url := strings.Join(cfg.Servers, ",")
	conn, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	log.Info("connected to NATS", slog.String("servers", url))

	c := &Client{
		conn:   conn,
		js:     js,
		prefix: cfg.SubjectPrefix,
		log:    log,
	}
	if err := c.ensureStream(); err != nil {
		log.Warn("jetstream unavailable, publishing without retention", slog.String("error", err.Error()))
	} else {
		c.durable = true
	}
	return c, nil
}

func (c *Client) ensureStream() error {
	_, err := c.js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = c.js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{c.Subject(">")},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}

// Subject returns name qualified with the configured prefix.
func (c *Client) Subject(name string) string {
	if c.prefix == "" {
		return name
	}
	return c.prefix + "." + name
}

// Publish encodes payload as JSON and publishes it under the prefixed subject.
func (c *Client) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}
	full := c.Subject(subject)
	if c.durable {
		if _, err := c.js.Publish(full, data, nats.Context(ctx)); err != nil {
			return fmt.Errorf("publish %s: %w", full, err)
		}
		return nil
	}
	if err := c.conn.Publish(full, data); err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}
	return nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	c.log.Info("closing NATS connection")
	_ = c.conn.Drain()
	c.conn.Close()
}

func (c *Client) Healthy() bool {
	return c != nil && c.conn != nil && c.conn.Status() == nats.CONNECTED
}

func (c *Client) Conn() *nats.Conn {
	return c.conn
}

// Discard is a publisher that drops every event. It stands in when the bus is
// disabled.
type Discard struct{}

func (Discard) Publish(context.Context, string, any) error { return nil }
