package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kapu/showdex-go/internal/domain"
	"github.com/kapu/showdex-go/internal/service/aggregator"
	"github.com/kapu/showdex-go/pkg/errors"
)

// Aggregator builds the enriched show response.
type Aggregator interface {
	Aggregate(ctx context.Context, showID int, country, locale string, opts aggregator.Options) (*domain.AggregatedShow, error)
}

// StatsSource exposes the translation counters.
type StatsSource interface {
	Stats() domain.TranslationStats
}

// Server is the thin HTTP surface over the aggregation pipeline.
type Server struct {
	router *mux.Router
	http   *http.Server
	agg    Aggregator
	stats  StatsSource
	logger *zap.Logger
}

func NewServer(port int, agg Aggregator, stats StatsSource, logger *zap.Logger) *Server {
	s := &Server{
		router: mux.NewRouter(),
		agg:    agg,
		stats:  stats,
		logger: logger,
	}

	s.router.HandleFunc("/api/shows/{id:[0-9]+}", s.handleShow).Methods(http.MethodGet)
	s.router.HandleFunc("/api/stats/translation", s.handleTranslationStats).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid show id")
		return
	}

	query := r.URL.Query()
	country := query.Get("country")
	if country == "" {
		country = "US"
	}
	locale := query.Get("locale")
	if locale == "" {
		locale = "en"
	}

	opts := aggregator.Options{
		SkipProviders:   boolParam(query.Get("skip_providers")),
		SkipTranslation: boolParam(query.Get("skip_translation")),
	}

	show, err := s.agg.Aggregate(r.Context(), id, country, locale, opts)
	if err != nil {
		var validation *errors.ValidationError
		if stderrors.As(err, &validation) {
			s.writeError(w, http.StatusBadRequest, validation.Message)
			return
		}

		var notFound *errors.NotFoundError
		if stderrors.As(err, &notFound) {
			s.writeError(w, http.StatusNotFound, notFound.Message)
			return
		}

		// Upstream details never reach end users.
		s.logger.Error("Aggregation failed",
			zap.Int("show_id", id),
			zap.Error(err),
		)
		s.writeError(w, http.StatusBadGateway, "show data temporarily unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, show)
}

func (s *Server) handleTranslationStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stats.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func boolParam(value string) bool {
	return value == "1" || value == "true"
}
