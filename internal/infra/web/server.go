package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"skillbridge-billing/internal/config"
	"skillbridge-billing/internal/infra/metrics"
	"skillbridge-billing/internal/infra/redis"
	"skillbridge-billing/internal/usecase"
)

// Server owns the HTTP surface: webhook, user-facing billing API, public
// plan listing and the key-protected admin API.
type Server struct {
	paymentUC   usecase.PaymentUseCase
	reconcileUC usecase.ReconcileUseCase
	subUC       usecase.SubscriptionUseCase
	planUC      usecase.PlanUseCase
	settingsUC  usecase.SettingsUseCase
	statsUC     usecase.StatsUseCase

	limiter   *redis.RateLimiter
	rateLimit config.RateLimitConfig
	jwtSecret string
	apiKey    string
	log       *zerolog.Logger

	httpSrv *http.Server
}

func NewServer(
	cfg *config.Config,
	paymentUC usecase.PaymentUseCase,
	reconcileUC usecase.ReconcileUseCase,
	subUC usecase.SubscriptionUseCase,
	planUC usecase.PlanUseCase,
	settingsUC usecase.SettingsUseCase,
	statsUC usecase.StatsUseCase,
	limiter *redis.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	s := &Server{
		paymentUC:   paymentUC,
		reconcileUC: reconcileUC,
		subUC:       subUC,
		planUC:      planUC,
		settingsUC:  settingsUC,
		statsUC:     statsUC,
		limiter:     limiter,
		rateLimit:   cfg.RateLimit,
		jwtSecret:   cfg.Auth.JWTSecret,
		apiKey:      cfg.Auth.AdminAPIKey,
		log:         &l,
	}
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// The gateway posts here; it carries no auth beyond the unguessable
	// checkout request id, so the handler stays strict about payloads.
	r.Post("/billing/callback/mpesa", s.mpesaCallbackHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", s.plansListHandler)

		r.Route("/billing", func(r chi.Router) {
			r.Use(s.userAuth)
			r.Post("/payments", s.paymentInitiateHandler)
			r.Get("/payments", s.paymentHistoryHandler)
			r.Get("/payments/{id}", s.paymentStatusHandler)
			r.Get("/subscriptions", s.subscriptionsHandler)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminAuth)
			r.Get("/stats", s.statsHandler)
			r.Get("/plans", s.adminPlansListHandler)
			r.Post("/plans", s.adminPlanCreateHandler)
			r.Put("/plans/{id}", s.adminPlanUpdateHandler)
			r.Delete("/plans/{id}", s.adminPlanDeleteHandler)
			r.Get("/settings", s.settingsGetHandler)
			r.Put("/settings", s.settingsUpdateHandler)
			r.Post("/settings/reload", s.settingsReloadHandler)
		})
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		// Route pattern keeps path ids out of the metric labels.
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.IncHTTPRequest(route, ww.Status())
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
