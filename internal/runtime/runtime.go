package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sowri347/bot-interview/internal/auth"
	"github.com/sowri347/bot-interview/internal/bus"
	"github.com/sowri347/bot-interview/internal/config"
	"github.com/sowri347/bot-interview/internal/evaluation"
	"github.com/sowri347/bot-interview/internal/httpapi"
	"github.com/sowri347/bot-interview/internal/interview"
	"github.com/sowri347/bot-interview/internal/llm"
	"github.com/sowri347/bot-interview/internal/natsserver"
	"github.com/sowri347/bot-interview/internal/store"
	"github.com/sowri347/bot-interview/internal/stt"
)

type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	store       *store.Store
	transcriber *stt.Service
	natsServer  *natsserver.EmbeddedServer
	busClient   *bus.Client
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry
	defer r.close()

	engine, err := r.build(ctx)
	if err != nil {
		return err
	}

	engine.GET("/healthz", gin.WrapF(r.handleHealth))
	engine.GET("/readyz", gin.WrapF(r.handleReady))
	if metricsHandler != nil {
		engine.GET(r.cfg.Telemetry.MetricsPath, gin.WrapH(metricsHandler))
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var serveErr error
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
			serveErr = fmt.Errorf("http server: %w", err)
			cancel()
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.String("stt_mode", r.cfg.STT.Mode),
		slog.String("llm_mode", r.cfg.LLM.Mode),
		slog.String("database", r.cfg.Database.Driver))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()
	return serveErr
}

// build wires storage, the AI backends, the event bus and the HTTP routes.
func (r *Runtime) build(ctx context.Context) (*gin.Engine, error) {
	st, err := store.Open(ctx, r.cfg.Database, r.logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	r.store = st

	backend, err := stt.New(r.cfg.STT)
	if err != nil {
		return nil, fmt.Errorf("create stt backend: %w", err)
	}
	r.transcriber = stt.NewService(backend, r.cfg.STT.Mode,
		time.Duration(r.cfg.STT.TimeoutMS)*time.Millisecond, r.logger)

	generator, err := llm.New(r.cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm backend: %w", err)
	}
	evaluator := evaluation.New(generator, r.cfg.LLM, r.logger)

	publisher, err := r.connectBus(ctx)
	if err != nil {
		return nil, err
	}

	issuer := auth.NewIssuer(r.cfg.Auth.JWTSecret, time.Duration(r.cfg.Auth.TokenTTLMinutes)*time.Minute)
	svc := interview.NewService(st, auth.NewHasher(r.cfg.Auth.BcryptCost), issuer, publisher, interview.Options{
		RequireLinkPassword: r.cfg.Auth.RequireLinkPassword,
		PublicBaseURL:       r.cfg.HTTP.PublicBaseURL,
	}, r.logger)

	if r.cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := httpapi.NewEngine(r.cfg.HTTP, r.logger)
	httpapi.New(svc, r.transcriber, evaluator, issuer, r.cfg.HTTP, r.logger).Register(engine)
	return engine, nil
}

func (r *Runtime) connectBus(ctx context.Context) (interview.Publisher, error) {
	if !r.cfg.Bus.Enabled {
		return bus.Discard{}, nil
	}
	busCfg := r.cfg.Bus
	ns, err := natsserver.Start(busCfg, r.logger)
	if err != nil {
		return nil, fmt.Errorf("start embedded nats: %w", err)
	}
	r.natsServer = ns
	if ns != nil {
		busCfg.Servers = []string{ns.ClientURL()}
	}
	client, err := bus.Connect(ctx, busCfg, r.logger)
	if err != nil {
		return nil, fmt.Errorf("connect event bus: %w", err)
	}
	r.busClient = client
	return client, nil
}

func (r *Runtime) close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if r.busClient != nil {
		r.busClient.Close()
	}
	if r.natsServer != nil {
		r.natsServer.Shutdown()
	}
	if r.transcriber != nil {
		if err := r.transcriber.Close(); err != nil {
			r.logger.Error("stt shutdown error", slog.String("error", err.Error()))
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.logger.Error("store close error", slog.String("error", err.Error()))
		}
	}
	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, req *http.Request) {
	if r.ready.Load() && r.store != nil && r.store.Ping(req.Context()) == nil {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
