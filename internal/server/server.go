// Package server exposes the cleaning dashboard over HTTP. Every request
// names a session; reporters open panels, mutations replace the dataset.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/dqboard/internal/config"
	apierrors "github.com/KaramelBytes/dqboard/internal/errors"
	"github.com/KaramelBytes/dqboard/internal/session"
)

// Server wires the session store to the HTTP API.
type Server struct {
	cfg      *config.Global
	store    *session.Store
	logger   *slog.Logger
	errs     *apierrors.ErrorHandler
	validate *validator.Validate
	metrics  *Metrics
	limiter  *RateLimiter
}

// New builds a server around store. The store's change hook feeds the
// active-sessions gauge.
func New(cfg *config.Global, store *session.Store, logger *slog.Logger) *Server {
	errs := apierrors.NewErrorHandler(logger)
	s := &Server{
		cfg:      cfg,
		store:    store,
		logger:   logger.With(slog.String("component", "http")),
		errs:     errs,
		validate: apierrors.NewValidator(),
		metrics:  NewMetrics(),
	}
	s.limiter = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, s.logger, errs)
	store.OnChange = s.metrics.SetSessions
	s.metrics.SetSessions(store.Len())
	return s
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(s.errs.Recoverer)
	r.NotFound(s.errs.NotFound)
	r.MethodNotAllowed(s.errs.MethodNotAllowed)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Handler)
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Post("/sessions", s.upload)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(s.SessionCtx)
			r.Get("/", s.summary)
			r.Delete("/", s.deleteSession)
			r.Get("/data", s.preview)
			r.Get("/panels", s.panels)
			r.Get("/download", s.download)

			// reporters
			r.Post("/info", s.info)
			r.Post("/describe", s.describe)
			r.Post("/dtypes", s.dtypes)
			r.Post("/columns", s.columns)
			r.Post("/missing", s.missing)
			r.Post("/duplicates", s.duplicates)
			r.Post("/outliers", s.outliers)
			r.Post("/visualize", s.visualize)
			r.Post("/correlation", s.correlation)

			// mutations
			r.Post("/missing/handle", s.handleMissing)
			r.Post("/duplicates/remove", s.removeDuplicates)
			r.Post("/outliers/handle", s.handleOutliers)
			r.Post("/convert", s.convert)
			r.Post("/rename", s.rename)

			r.Get("/plots/{column}/histogram.png", s.histogramPNG)
			r.Get("/plots/{column}/boxplot.png", s.boxPlotPNG)
		})
	})
	return r
}

// HTTPServer returns an http.Server configured from cfg.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(s.cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.WriteTimeoutSec) * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}
}

type sessionKey struct{}

// SessionCtx loads the {id} session into the request context.
func (s *Server) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.store.Get(chi.URLParam(r, "id"))
		if err != nil {
			s.errs.HandleError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":   "ok",
		"sessions": s.store.Len(),
	})
}
