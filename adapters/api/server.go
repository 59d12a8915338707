package api

import (
	"encoding/json"
	"net/http"
	"time"

	"gotidy/app"
	"gotidy/internal/errors"
	"gotidy/internal/logging"
	"gotidy/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxBodyBytes = 32 << 20

// Server is the JSON HTTP surface over the cleaning pipeline
type Server struct {
	router   *chi.Mux
	cleaning *app.CleaningService
	runs     ports.RunRepository
	defaults Defaults
	logger   *zap.SugaredLogger
}

// Defaults fill request fields the caller leaves empty
type Defaults struct {
	Policy      string
	FillValue   string
	DateFormats []string
	DateMode    string
	Seed        int64
}

// NewServer creates the API server. runs may be nil, in which case the run
// endpoints answer 404.
func NewServer(cleaning *app.CleaningService, runs ports.RunRepository, defaults Defaults, logger *zap.SugaredLogger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		cleaning: cleaning,
		runs:     runs,
		defaults: defaults,
		logger:   logging.OrNop(logger),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/missing-report", s.handleMissingReport)
		r.Post("/resolve", s.handleResolve)
		r.Post("/scale", s.handleScale)
		r.Post("/normalize", s.handleNormalize)
		r.Post("/dates", s.handleDates)
		r.Post("/clean", s.handleClean)

		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.InvalidInput("malformed JSON body: " + err.Error())
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Errorw("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch {
	case code == errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.IsClientError(err):
		status = http.StatusBadRequest
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Errorw("request failed", "error", err)
		message = "internal error"
	}
	s.writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
