package natsserver

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/sowri347/bot-interview/internal/config"
)

const readyTimeout = 5 * time.Second

// jetStreamMaxStore bounds on-disk event retention for single node installs.
const jetStreamMaxStore = 1 << 30

var errNotReady = errors.New("embedded nats not ready")

// EmbeddedServer runs the event broker inside interviewd so a single node
// deployment needs no external NATS.
type EmbeddedServer struct {
	ns  *server.Server
	log *slog.Logger
}

// Start returns nil, nil unless the bus is enabled and embedded. Port -1
// picks a free port.
func Start(cfg config.BusConfig, log *slog.Logger) (*EmbeddedServer, error) {
	if !cfg.Enabled || !cfg.Embedded {
		return nil, nil
	}
	log = log.With(slog.String("component", "natsserver"))

	if cfg.StoreDir != "" {
		if err := os.MkdirAll(cfg.StoreDir, 0o755); err != nil {
			return nil, fmt.Errorf("create jetstream dir: %w", err)
		}
	}

	ns, err := server.NewServer(&server.Options{
		ServerName:        "interviewd",
		Host:              "127.0.0.1",
		Port:              cfg.Port,
		JetStream:         true,
		JetStreamMaxStore: jetStreamMaxStore,
		StoreDir:          cfg.StoreDir,
		NoSigs:            true,
		NoLog:             true,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedded nats: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("%w after %s", errNotReady, readyTimeout)
	}

	log.Info("embedded nats started",
		slog.String("url", ns.ClientURL()),
		slog.String("store_dir", cfg.StoreDir))
	return &EmbeddedServer{ns: ns, log: log}, nil
}

func (e *EmbeddedServer) ClientURL() string {
	return e.ns.ClientURL()
}

// Shutdown stops the server and waits for it to exit.
func (e *EmbeddedServer) Shutdown() {
	if e == nil || e.ns == nil {
		return
	}
	e.ns.Shutdown()
	e.ns.WaitForShutdown()
	e.log.Info("embedded nats stopped")
}
