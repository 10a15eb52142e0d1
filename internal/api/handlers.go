package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/service"

	"github.com/google/uuid"
)

// actor resolves the acting user from the bearer session token. Writes
// the error response itself and returns nil when the request is not
// authenticated.
func (s *HTTPServer) actor(w http.ResponseWriter, r *http.Request) *models.User {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return nil
	}

	session, err := s.sessions.GetSession(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session lookup failed")
		return nil
	}
	if session == nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired session")
		return nil
	}

	window := time.Duration(s.cfg.Session.RateLimitWindowS) * time.Second
	allowed, err := s.sessions.CheckRateLimit(r.Context(), session.UserID, s.cfg.Session.RateLimitRequests, window)
	if err == nil && !allowed {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return nil
	}

	user, err := s.store.GetUser(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return nil
	}
	return user
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// --- users ---

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	email := strings.TrimSpace(strings.ToLower(body.Email))
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	role := models.RoleUser
	for _, admin := range s.cfg.Admins {
		if strings.EqualFold(strings.TrimSpace(admin), email) {
			role = models.RoleAdmin
			break
		}
	}

	user := &models.User{
		FirstName: strings.TrimSpace(body.FirstName),
		LastName:  strings.TrimSpace(body.LastName),
		Email:     email,
		Role:      role,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// --- sessions ---

func (s *HTTPServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Email) == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), strings.TrimSpace(body.Email))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(s.cfg.SessionTTL()),
	}
	if err := s.sessions.SetSession(r.Context(), session); err != nil {
		writeError(w, http.StatusInternalServerError, "session store failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user":       user,
	})
}

func (s *HTTPServer) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}
	if err := s.sessions.ClearSession(r.Context(), token); err != nil {
		writeError(w, http.StatusInternalServerError, "session clear failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- reservations ---

func (s *HTTPServer) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}

	var req service.ReservationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reservation, err := s.reservations.CreateReservation(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

func (s *HTTPServer) handleListReservations(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}

	list, err := s.reservations.ListUserReservations(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": list})
}

func (s *HTTPServer) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	reservation, err := s.reservations.GetReservation(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *HTTPServer) handleDeleteReservation(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.reservations.DeleteReservation(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- events ---

func (s *HTTPServer) handleListEvents(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	summaries, err := s.events.ListEventSummaries(r.Context(), status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": summaries})
}

func (s *HTTPServer) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}

	var req service.EventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	event, err := s.events.CreateEvent(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *HTTPServer) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	event, err := s.events.GetEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *HTTPServer) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req service.EventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	event, err := s.events.UpdateEvent(r.Context(), actor, id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *HTTPServer) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.events.DeleteEvent(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleEventTransition(w http.ResponseWriter, r *http.Request,
	transition func(*models.User, int64) error,
) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := transition(actor, id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handlePublishEvent(w http.ResponseWriter, r *http.Request) {
	s.handleEventTransition(w, r, func(actor *models.User, id int64) error {
		return s.events.PublishEvent(r.Context(), actor, id)
	})
}

func (s *HTTPServer) handleCancelEvent(w http.ResponseWriter, r *http.Request) {
	s.handleEventTransition(w, r, func(actor *models.User, id int64) error {
		return s.events.CancelEvent(r.Context(), actor, id)
	})
}

func (s *HTTPServer) handleCompleteEvent(w http.ResponseWriter, r *http.Request) {
	s.handleEventTransition(w, r, func(actor *models.User, id int64) error {
		return s.events.CompleteEvent(r.Context(), actor, id)
	})
}

func (s *HTTPServer) handleEventCapacity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	report, err := s.reservations.EventAttendance(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *HTTPServer) handleEventRoster(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	roster, err := s.reservations.EventRoster(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roster": roster})
}

func (s *HTTPServer) handleEventRosterExport(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	event, err := s.events.GetEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	roster, err := s.reservations.EventRoster(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	stats, err := s.events.EventStats(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	data, err := s.exporter.RosterBytes(event, roster, stats)
	if err != nil {
		s.logger.Error().Err(err).Int64("event_id", id).Msg("roster export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=roster_event_%d.xlsx", id))
	_, _ = w.Write(data)
}

func (s *HTTPServer) handleEventStats(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	stats, err := s.events.EventStats(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleEventRating(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	summary, err := s.comments.EventRatingSummary(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// --- buses ---

func (s *HTTPServer) handleListEventBuses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	buses, err := s.buses.ListBusesByEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"buses": buses})
}

func (s *HTTPServer) handleCreateBus(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}

	var bus models.Bus
	if !decodeBody(w, r, &bus) {
		return
	}

	if err := s.buses.CreateBus(r.Context(), actor, &bus); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bus)
}

func (s *HTTPServer) handleGetBus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	bus, err := s.buses.GetBus(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bus)
}

func (s *HTTPServer) handleUpdateBus(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body struct {
		Seats int64 `json:"seats"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.buses.UpdateBusSeats(r.Context(), actor, id, body.Seats); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleDeleteBus(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.buses.DeleteBus(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- comments ---

func (s *HTTPServer) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}

	var body struct {
		ReservationID int64  `json:"reservation_id"`
		Rating        *int64 `json:"rating"`
		Review        string `json:"review"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	comment, err := s.comments.CreateComment(r.Context(), actor, body.ReservationID, body.Rating, body.Review)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *HTTPServer) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body struct {
		Rating *int64 `json:"rating"`
		Review string `json:"review"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	comment, err := s.comments.UpdateComment(r.Context(), actor, id, body.Rating, body.Review)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (s *HTTPServer) handleGetReservationComment(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	// Visibility follows the reservation itself.
	if _, err := s.reservations.GetReservation(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}

	comment, err := s.comments.GetCommentByReservation(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}
