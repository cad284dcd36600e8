package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// subjectPrefix namespaces update subjects on the NATS side.
const subjectPrefix = "task.updates."

// NATSNotifier implements Notifier over NATS, for deployments where UI
// backends and webhook dispatchers run out of process.
type NATSNotifier struct {
	conn   *nats.Conn
	config NATSConfig
}

// NATSConfig holds NATS connection configuration.
type NATSConfig struct {
	Config

	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Name is the client name for identification.
	Name string

	// Token for token-based auth.
	Token string

	// User and Password for basic auth.
	User     string
	Password string

	// ReconnectWait is the time to wait between reconnection attempts.
	ReconnectWait time.Duration

	// MaxReconnects is the maximum number of reconnection attempts.
	// -1 = unlimited
	MaxReconnects int

	// ConnectTimeout for initial connection.
	ConnectTimeout time.Duration
}

// DefaultNATSConfig returns configuration with sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		Config:         DefaultConfig(),
		URL:            nats.DefaultURL,
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  -1,
		ConnectTimeout: 5 * time.Second,
	}
}

// NewNATSNotifier connects to NATS and returns a notifier.
func NewNATSNotifier(cfg NATSConfig) (*NATSNotifier, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}

	conn, err := nats.Connect(cfg.URL, buildNATSOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &NATSNotifier{conn: conn, config: cfg}, nil
}

// NewNATSNotifierFromConn wraps an existing connection.
func NewNATSNotifierFromConn(conn *nats.Conn, cfg NATSConfig) *NATSNotifier {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &NATSNotifier{conn: conn, config: cfg}
}

// buildNATSOptions constructs NATS connection options from config.
func buildNATSOptions(cfg NATSConfig) []nats.Option {
	opts := []nats.Option{
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}
	return opts
}

// Publish implements Notifier.
func (n *NATSNotifier) Publish(update Update) error {
	if update.ContextID == "" {
		return ErrInvalidContext
	}
	if n.conn.IsClosed() {
		return ErrClosed
	}
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	if err := n.conn.Publish(subjectPrefix+update.ContextID, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// Subscribe implements Notifier. An empty contextID subscribes to updates
// for all contexts via a wildcard subject.
func (n *NATSNotifier) Subscribe(contextID string) (Subscription, error) {
	if n.conn.IsClosed() {
		return nil, ErrClosed
	}

	subject := subjectPrefix + contextID
	if contextID == "" {
		subject = subjectPrefix + ">"
	}

	ch := make(chan Update, n.config.BufferSize)
	natsSub, err := n.conn.Subscribe(subject, func(m *nats.Msg) {
		var update Update
		if err := json.Unmarshal(m.Data, &update); err != nil {
			return
		}
		select {
		case ch <- update:
		default:
		}
	})
	if err != nil {
		close(ch)
		return nil, fmt.Errorf("nats subscribe: %w", err)
	}

	return &natsSubscription{sub: natsSub, ch: ch}, nil
}

// Close shuts down the NATS connection.
func (n *NATSNotifier) Close() error {
	n.conn.Close()
	return nil
}

// natsSubscription wraps a NATS subscription.
type natsSubscription struct {
	sub *nats.Subscription
	ch  chan Update
}

// Updates returns the update channel.
func (s *natsSubscription) Updates() <-chan Update {
	return s.ch
}

// Unsubscribe cancels the subscription.
func (s *natsSubscription) Unsubscribe() error {
	err := s.sub.Unsubscribe()
	close(s.ch)
	return err
}
