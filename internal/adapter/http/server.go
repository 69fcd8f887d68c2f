package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultCheckTimeout = 2 * time.Second

// ReadinessChecker reports whether a stage has done useful work yet.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReadinessFunc adapts a function to ReadinessChecker.
type ReadinessFunc func(ctx context.Context) error

func (f ReadinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// Status is the body of /healthz and /readyz.
type Status struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Error   string `json:"error,omitempty"`
}

// Options configures a Server. Zero CheckTimeout and nil Clock take defaults.
type Options struct {
	Addr         string
	Service      string
	Ready        ReadinessChecker
	CheckTimeout time.Duration
	Clock        clockwork.Clock
	Logger       *slog.Logger
}

// Server exposes liveness, readiness and Prometheus metrics for a
// long-running stage.
type Server struct {
	srv          *http.Server
	service      string
	ready        ReadinessChecker
	checkTimeout time.Duration
	clock        clockwork.Clock
	started      time.Time
	logger       *slog.Logger
}

func NewServer(opts Options) *Server {
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = defaultCheckTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	s := &Server{
		service:      opts.Service,
		ready:        opts.Ready,
		checkTimeout: opts.CheckTimeout,
		clock:        opts.Clock,
		started:      opts.Clock.Now(),
		logger:       opts.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.liveness)
	mux.HandleFunc("GET /readyz", s.readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Serve listens until ctx is cancelled, then drains connections for at most
// shutdownTimeout. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, shutdownTimeout time.Duration) error {
	listenErr := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.srv.Addr, "service", s.service)
		listenErr <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-listenErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) status(state string) Status {
	return Status{
		Service: s.service,
		Status:  state,
		Uptime:  s.clock.Since(s.started).Truncate(time.Second).String(),
	}
}

func (s *Server) liveness(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, s.status("healthy"))
}

func (s *Server) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.checkTimeout)
	defer cancel()

	err := s.ready.CheckReadiness(ctx)
	if err == nil {
		respond(w, http.StatusOK, s.status("ready"))
		return
	}

	s.logger.Debug("not ready", "service", s.service, "error", err)
	st := s.status("not ready")
	st.Error = err.Error()
	respond(w, http.StatusServiceUnavailable, st)
}

func respond(w http.ResponseWriter, code int, st Status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(st)
}
