package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-finder/internal/application"
	"github.com/example/room-finder/internal/logging"
	"github.com/example/room-finder/internal/directory"
)

type sessionService interface {
	CurrentState(ctx context.Context, callerID string) (application.SessionState, error)
	SetDate(ctx context.Context, callerID, date string) (application.SessionState, error)
	SelectBuilding(ctx context.Context, callerID, nameOrID string) (directory.Building, error)
	SelectFloor(ctx context.Context, callerID, nameOrID string) (directory.Floor, error)
	SetTitle(ctx context.Context, callerID, title string) (application.SessionState, error)
	SetRecurrence(ctx context.Context, callerID, pattern, endDate string) (application.SessionState, error)
	AddAttendee(ctx context.Context, callerID, employeeID string, role application.AttendeeRole) (application.SessionState, error)
	ToggleAttendee(ctx context.Context, callerID, employeeID string, role application.AttendeeRole) (application.SessionState, error)
	RemoveAttendee(ctx context.Context, callerID, employeeID string) (application.SessionState, error)
	AddAttendeesByNames(ctx context.Context, callerID string, names []string, role application.AttendeeRole) (application.NameResolution, error)
	AddEntity(ctx context.Context, callerID string, kind application.EntityKind, id string, role application.AttendeeRole) (application.SelectedEntity, error)
	RemoveEntity(ctx context.Context, callerID string, kind application.EntityKind, id string) (application.SessionState, error)
	SelectRange(ctx context.Context, callerID, roomID, start, end string) (application.SessionState, error)
	ClearSelection(ctx context.Context, callerID string) (application.SessionState, error)
	CommitSelection(ctx context.Context, callerID string) (application.CommitResult, error)
}

// SessionHandler edits the caller's pending meeting.
type SessionHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service sessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: service, responder: newResponder(logger), logger: logging.Or(logger)}
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	caller, _ := CallerFromContext(r.Context())
	h.renderState(w, r, h.service.CurrentState, caller)
}

func (h *SessionHandler) SetDate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req dateRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller, _ := CallerFromContext(r.Context())
	state, err := h.service.SetDate(r.Context(), caller, req.Date)
	h.respondState(w, r, state, err)
}

// SetLocation selects the building first so a floor name is scoped to it.
func (h *SessionHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req locationRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	caller, _ := CallerFromContext(ctx)

	if building := strings.TrimSpace(req.Building); building != "" {
		if _, err := h.service.SelectBuilding(ctx, caller, building); err != nil {
			h.responder.handleServiceError(ctx, w, err)
			return
		}
	}
	if floor := strings.TrimSpace(req.Floor); floor != "" {
		if _, err := h.service.SelectFloor(ctx, caller, floor); err != nil {
			h.responder.handleServiceError(ctx, w, err)
			return
		}
	}
	h.renderState(w, r, h.service.CurrentState, caller)
}

func (h *SessionHandler) SetDetails(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req detailsRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	caller, _ := CallerFromContext(ctx)

	if req.Title != nil {
		if _, err := h.service.SetTitle(ctx, caller, *req.Title); err != nil {
			h.responder.handleServiceError(ctx, w, err)
			return
		}
	}
	if req.RecurrenceType != nil {
		if _, err := h.service.SetRecurrence(ctx, caller, *req.RecurrenceType, req.RecurrenceEndDate); err != nil {
			h.responder.handleServiceError(ctx, w, err)
			return
		}
	}
	h.renderState(w, r, h.service.CurrentState, caller)
}

// AddAttendees accepts either an employee id or a list of names.
func (h *SessionHandler) AddAttendees(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req attendeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	caller, _ := CallerFromContext(ctx)

	role, ok := application.ParseRole(req.Role)
	if !ok {
		h.responder.handleServiceError(ctx, w, fieldError("role", "unknown role "+req.Role))
		return
	}

	if len(req.Names) > 0 {
		resolution, err := h.service.AddAttendeesByNames(ctx, caller, req.Names, role)
		if err != nil {
			h.responder.handleServiceError(ctx, w, err)
			return
		}
		h.responder.writeJSON(ctx, w, http.StatusOK, resolution)
		return
	}

	change := h.service.AddAttendee
	if req.Toggle {
		change = h.service.ToggleAttendee
	}
	state, err := change(ctx, caller, strings.TrimSpace(req.EmployeeID), role)
	h.respondState(w, r, state, err)
}

func (h *SessionHandler) RemoveAttendee(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	caller, _ := CallerFromContext(r.Context())
	state, err := h.service.RemoveAttendee(r.Context(), caller, r.PathValue("id"))
	h.respondState(w, r, state, err)
}

func (h *SessionHandler) AddEntity(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req entityRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	caller, _ := CallerFromContext(ctx)

	kind, ok := application.ParseEntityKind(req.Kind)
	if !ok {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidEntityKey)
		return
	}
	role, ok := application.ParseRole(req.Role)
	if !ok {
		h.responder.handleServiceError(ctx, w, fieldError("role", "unknown role "+req.Role))
		return
	}

	entity, err := h.service.AddEntity(ctx, caller, kind, strings.TrimSpace(req.ID), role)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusCreated, entity)
}

func (h *SessionHandler) RemoveEntity(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	kind, ok := application.ParseEntityKind(r.PathValue("kind"))
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntityKey)
		return
	}
	caller, _ := CallerFromContext(r.Context())
	state, err := h.service.RemoveEntity(r.Context(), caller, kind, r.PathValue("id"))
	h.respondState(w, r, state, err)
}

func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req selectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	caller, _ := CallerFromContext(r.Context())
	state, err := h.service.SelectRange(r.Context(), caller, strings.TrimSpace(req.RoomID), req.StartTime, req.EndTime)
	h.respondState(w, r, state, err)
}

func (h *SessionHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	caller, _ := CallerFromContext(r.Context())
	h.renderState(w, r, h.service.ClearSelection, caller)
}

func (h *SessionHandler) Commit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	caller, _ := CallerFromContext(ctx)
	result, err := h.service.CommitSelection(ctx, caller)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	logging.Component(ctx, h.logger, "handler", "SessionHandler", "Commit").
		InfoContext(ctx, "selection committed", "count", len(result.Reservations))
	h.responder.writeJSON(ctx, w, http.StatusCreated, toCommitResponse(result))
}

func (h *SessionHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return false
	}
	return true
}

func (h *SessionHandler) renderState(w http.ResponseWriter, r *http.Request, load func(context.Context, string) (application.SessionState, error), caller string) {
	state, err := load(r.Context(), caller)
	h.respondState(w, r, state, err)
}

func (h *SessionHandler) respondState(w http.ResponseWriter, r *http.Request, state application.SessionState, err error) {
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, state)
}

func fieldError(field, message string) error {
	return &application.ValidationError{FieldErrors: map[string]string{field: message}}
}

type dateRequest struct {
	Date string `json:"date"`
}

type locationRequest struct {
	Building string `json:"building"`
	Floor    string `json:"floor"`
}

type detailsRequest struct {
	Title             *string `json:"title"`
	RecurrenceType    *string `json:"recurrence_type"`
	RecurrenceEndDate string  `json:"recurrence_end_date"`
}

type attendeeRequest struct {
	EmployeeID string   `json:"employee_id"`
	Names      []string `json:"names"`
	Role       string   `json:"role"`
	Toggle     bool     `json:"toggle"`
}

type entityRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	Role string `json:"role"`
}

type selectionRequest struct {
	RoomID    string `json:"room_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
