// Package server exposes review invocations over HTTP so a CI job can
// trigger a deploy or stop with a single request and read the invocation
// log back from the response.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/ctxutil"
	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/history"
	"github.com/mrz1836/reviewapp/internal/metrics"
)

// maxPayloadBytes bounds a request body.
const maxPayloadBytes = 1 << 20

// InvocationHeader carries the invocation id on every invocation response.
const InvocationHeader = "X-Invocation-ID"

// Runner executes invocations. *review.Engine implements it.
type Runner interface {
	Deploy(ctx context.Context, req domain.ReviewRequest) domain.Invocation
	Stop(ctx context.Context, req domain.ReviewRequest) domain.Invocation
}

// Options configures a Server.
type Options struct {
	Addr            string
	RateLimit       float64
	Burst           int
	ShutdownTimeout time.Duration
	// Describe names the platform on /healthz.
	Describe string
}

// Server is the serve-mode HTTP API.
type Server struct {
	opts    Options
	runner  Runner
	store   history.Store
	metrics *metrics.Metrics
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a Server. A non-positive RateLimit disables rate limiting.
func New(opts Options, runner Runner, store history.Store, m *metrics.Metrics, logger zerolog.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = constants.DefaultServerAddr
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = constants.DefaultShutdownTimeout
	}
	s := &Server{opts: opts, runner: runner, store: store, metrics: m, logger: logger}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.withLogger)
	r.Use(s.countRequests)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/deploy", s.handleInvoke(domain.OperationDeploy))
			r.Post("/stop", s.handleInvoke(domain.OperationStop))
		})
		r.Get("/invocations/{id}", s.handleGetInvocation)
		r.Get("/reviews/{slug}/invocations", s.handleListInvocations)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.opts.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.logger.WithContext(context.Background()) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("serving review app API")
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("shutting down review app API")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.HTTPRequest(route, status)
		zerolog.Ctx(r.Context()).Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("http request served")
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"platform": s.opts.Describe,
		"time":     time.Now().UTC(),
	})
}

func (s *Server) handleInvoke(op domain.Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
		if err != nil {
			respondError(w, http.StatusBadRequest, "read body: "+err.Error())
			return
		}
		req, err := domain.ParseRequest(body)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		id := uuid.NewString()
		ctx := ctxutil.WithInvocationID(r.Context(), id)

		var res domain.Invocation
		if op == domain.OperationStop {
			res = s.runner.Stop(ctx, req)
		} else {
			res = s.runner.Deploy(ctx, req)
		}

		w.Header().Set(InvocationHeader, res.ID)
		respondJSON(w, statusCode(res), res)
	}
}

// statusCode maps an invocation outcome to an HTTP status: failures caused
// by the request are 422, failures of a downstream system are 502.
func statusCode(res domain.Invocation) int {
	switch {
	case !res.Failed():
		return http.StatusOK
	case res.InputError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleGetInvocation(w http.ResponseWriter, r *http.Request) {
	inv, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

func (s *Server) handleListInvocations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	list, err := s.store.List(r.Context(), chi.URLParam(r, "slug"), limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"invocations": list})
}

func respondStoreError(w http.ResponseWriter, err error) {
	if stderrors.Is(err, errors.ErrInvocationNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
