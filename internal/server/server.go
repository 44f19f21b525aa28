// Package server wires the runtime, the prediction service and the HTTP and
// gRPC listeners into one process.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/mcules/student-success/internal/activity"
	"github.com/mcules/student-success/internal/api"
	"github.com/mcules/student-success/internal/auth"
	"github.com/mcules/student-success/internal/cache"
	"github.com/mcules/student-success/internal/config"
	"github.com/mcules/student-success/internal/demo"
	"github.com/mcules/student-success/internal/history"
	"github.com/mcules/student-success/internal/httpx"
	"github.com/mcules/student-success/internal/logging"
	"github.com/mcules/student-success/internal/predict"
	"github.com/mcules/student-success/internal/state"
	"github.com/mcules/student-success/internal/ui"
)

// HealthService is the gRPC health service name reported next to the
// overall ("") status.
const HealthService = "studentsuccess.Predictor"

const watchDebounce = 500 * time.Millisecond

type Server struct {
	cfg      config.Config
	log      *zap.Logger
	runtime  *state.Runtime
	service  *predict.Service
	activity *activity.Log
	history  *history.Store
	redis    *cache.Redis
	health   *health.Server
	handler  http.Handler
}

// New builds the process. Missing model or dataset files do not fail it;
// the UI shows the missing-files page and readiness stays false.
func New(cfg config.Config, log *zap.Logger) (*Server, error) {
	log = logging.OrNop(log)
	s := &Server{cfg: cfg, log: log, activity: activity.New(cfg.Activity.Size)}

	modelPath, datasetPath := cfg.Model.Path, cfg.Dataset.Path
	if cfg.Demo.Enabled {
		files, err := demo.Write(cfg.Demo.Dir, demo.Config{Rows: cfg.Demo.Rows, Seed: cfg.Demo.Seed})
		if err != nil {
			return nil, fmt.Errorf("demo files: %w", err)
		}
		modelPath, datasetPath = files.Model, files.Dataset
		log.Info("demo mode", zap.String("model", modelPath), zap.String("dataset", datasetPath))
	}

	s.runtime = state.New(modelPath, datasetPath, log, s.activity)
	if err := s.runtime.Load(); err != nil {
		log.Warn("startup load incomplete", zap.Error(err))
	}

	opts := predict.Options{
		Mode:     cfg.AlignmentMode(),
		Activity: s.activity,
		Logger:   log,
	}
	if cfg.History.DSN != "" {
		store, err := history.Open(cfg.History.DSN)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		s.history = store
		opts.History = store
	}
	if cfg.Cache.RedisURL != "" {
		client, err := cache.Connect(cfg.Cache.RedisURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.redis = cache.NewRedis(client, cfg.Cache.TTL)
		opts.Cache = s.redis
	} else {
		opts.Cache = cache.NewMemory(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}
	s.service = predict.NewService(s.runtime, opts)

	s.health = health.NewServer()
	s.runtime.OnReadyChange(func(ready bool) {
		st := healthpb.HealthCheckResponse_NOT_SERVING
		if ready {
			st = healthpb.HealthCheckResponse_SERVING
		}
		s.health.SetServingStatus("", st)
		s.health.SetServingStatus(HealthService, st)
	})

	h, err := s.routes()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.handler = h
	return s, nil
}

func (s *Server) routes() (http.Handler, error) {
	authCfg := auth.Config{
		APIKeyHashes:      s.cfg.Auth.APIKeyHashes,
		AdminUser:         s.cfg.Auth.AdminUser,
		AdminPasswordHash: s.cfg.Auth.AdminPasswordHash,
	}
	apiAuth := auth.New(authCfg, func(w http.ResponseWriter, _ *http.Request, status int, msg string) {
		code := httpx.CodeUnauthorized
		if status == http.StatusForbidden {
			code = httpx.CodeForbidden
		}
		httpx.WriteError(w, status, code, msg, nil)
	})

	pages, err := ui.New(s.runtime, s.service, ui.Options{
		Auth:         auth.New(authCfg, nil),
		Activity:     s.activity,
		SampleRows:   s.cfg.Dataset.SampleRows,
		HistoryLimit: s.cfg.History.PageSize,
		Logger:       s.log,
	})
	if err != nil {
		return nil, fmt.Errorf("ui templates: %w", err)
	}

	r := chi.NewRouter()
	r.Use(httpx.RequestID)
	r.Use(httpx.Recover(s.log, onPanic))
	r.Use(httpx.AccessLog(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", s.ready)

	apiRoutes := api.New(s.runtime, s.service, s.log).Routes()
	r.Mount("/api/v1", httpx.CORS{AllowOrigin: s.cfg.HTTP.CORSOrigin}.Wrap(apiAuth.RequireAPIKey(apiRoutes)))
	r.Mount("/", pages.Routes())
	return r, nil
}

func onPanic(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error", nil)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

type readiness struct {
	Ready     bool             `json:"ready"`
	Resources []state.Resource `json:"resources"`
}

func (s *Server) ready(w http.ResponseWriter, _ *http.Request) {
	body := readiness{Ready: s.runtime.Ready(), Resources: s.runtime.Resources()}
	status := http.StatusOK
	if !body.Ready {
		status = http.StatusServiceUnavailable
	}
	httpx.WriteJSON(w, status, body)
}

// Handler is the full HTTP handler, middleware included.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) Runtime() *state.Runtime { return s.runtime }

// Run serves HTTP and gRPC until ctx is done or a listener fails, then shuts
// both down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.cfg.Model.Watch {
		if err := s.runtime.Watch(ctx, watchDebounce); err != nil {
			return fmt.Errorf("watch files: %w", err)
		}
	}

	httpSrv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.HTTP.ReadTimeout,
		WriteTimeout:      s.cfg.HTTP.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		s.log.Info("http listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	var grpcSrv *grpc.Server
	if s.cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", s.cfg.GRPC.Addr)
		if err != nil {
			_ = httpSrv.Close()
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcSrv = grpc.NewServer()
		healthpb.RegisterHealthServer(grpcSrv, s.health)
		reflection.Register(grpcSrv)
		go func() {
			s.log.Info("grpc listening", zap.String("addr", lis.Addr().String()))
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc serve: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		s.log.Info("shutdown requested")
	case runErr = <-errCh:
		s.log.Error("server failure", zap.Error(runErr))
	}

	s.health.Shutdown()
	timeout := s.cfg.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), timeout)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("http shutdown", zap.Error(err))
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	return runErr
}

// Close releases the history store and the Redis client.
func (s *Server) Close() error {
	var errs []error
	if s.history != nil {
		errs = append(errs, s.history.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	return errors.Join(errs...)
}
