package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/config"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/database"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/domain"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/export"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/metrics"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the caller-facing JSON API.
type HTTPServer struct {
	cfg          config.Config
	store        domain.Store
	sessions     domain.SessionRepository
	reservations *service.ReservationService
	events       *service.EventService
	buses        *service.BusService
	comments     *service.CommentService
	exporter     *export.Exporter
	server       *http.Server
	auth         *HTTPAuth
	logger       *zerolog.Logger
}

type Deps struct {
	Store        domain.Store
	Sessions     domain.SessionRepository
	Reservations *service.ReservationService
	Events       *service.EventService
	Buses        *service.BusService
	Comments     *service.CommentService
	Exporter     *export.Exporter
	Logger       *zerolog.Logger
}

func NewHTTPServer(cfg config.Config, deps Deps) *HTTPServer {
	srv := &HTTPServer{
		cfg:          cfg,
		store:        deps.Store,
		sessions:     deps.Sessions,
		reservations: deps.Reservations,
		events:       deps.Events,
		buses:        deps.Buses,
		comments:     deps.Comments,
		exporter:     deps.Exporter,
		logger:       deps.Logger,
	}
	srv.auth = NewHTTPAuth(cfg.API)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/users", srv.handleCreateUser)
	mux.HandleFunc("POST /v1/sessions", srv.handleCreateSession)
	mux.HandleFunc("DELETE /v1/sessions", srv.handleDeleteSession)

	mux.HandleFunc("POST /v1/reservations", srv.handleCreateReservation)
	mux.HandleFunc("GET /v1/reservations", srv.handleListReservations)
	mux.HandleFunc("GET /v1/reservations/{id}", srv.handleGetReservation)
	mux.HandleFunc("DELETE /v1/reservations/{id}", srv.handleDeleteReservation)

	mux.HandleFunc("GET /v1/events", srv.handleListEvents)
	mux.HandleFunc("POST /v1/events", srv.handleCreateEvent)
	mux.HandleFunc("GET /v1/events/{id}", srv.handleGetEvent)
	mux.HandleFunc("PUT /v1/events/{id}", srv.handleUpdateEvent)
	mux.HandleFunc("DELETE /v1/events/{id}", srv.handleDeleteEvent)
	mux.HandleFunc("POST /v1/events/{id}/publish", srv.handlePublishEvent)
	mux.HandleFunc("POST /v1/events/{id}/cancel", srv.handleCancelEvent)
	mux.HandleFunc("POST /v1/events/{id}/complete", srv.handleCompleteEvent)
	mux.HandleFunc("GET /v1/events/{id}/capacity", srv.handleEventCapacity)
	mux.HandleFunc("GET /v1/events/{id}/roster", srv.handleEventRoster)
	mux.HandleFunc("GET /v1/events/{id}/roster.xlsx", srv.handleEventRosterExport)
	mux.HandleFunc("GET /v1/events/{id}/stats", srv.handleEventStats)
	mux.HandleFunc("GET /v1/events/{id}/rating", srv.handleEventRating)
	mux.HandleFunc("GET /v1/events/{id}/buses", srv.handleListEventBuses)

	mux.HandleFunc("POST /v1/buses", srv.handleCreateBus)
	mux.HandleFunc("GET /v1/buses/{id}", srv.handleGetBus)
	mux.HandleFunc("PUT /v1/buses/{id}", srv.handleUpdateBus)
	mux.HandleFunc("DELETE /v1/buses/{id}", srv.handleDeleteBus)

	mux.HandleFunc("POST /v1/comments", srv.handleCreateComment)
	mux.HandleFunc("PUT /v1/comments/{id}", srv.handleUpdateComment)
	mux.HandleFunc("GET /v1/reservations/{id}/comment", srv.handleGetReservationComment)

	mux.HandleFunc("GET /healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps store sentinels to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *database.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, database.ErrEmptyComment):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, database.ErrEventNotFound),
		errors.Is(err, database.ErrBusNotFound),
		errors.Is(err, database.ErrReservationNotFound),
		errors.Is(err, database.ErrCommentNotFound),
		errors.Is(err, database.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrEventNotOpen),
		errors.Is(err, database.ErrEventFull),
		errors.Is(err, database.ErrOutboundBusFull),
		errors.Is(err, database.ErrReturnBusFull),
		errors.Is(err, database.ErrDuplicateReservation),
		errors.Is(err, database.ErrDuplicateComment),
		errors.Is(err, database.ErrDescriptionTaken),
		errors.Is(err, database.ErrBusInUse),
		errors.Is(err, database.ErrEventInUse):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
