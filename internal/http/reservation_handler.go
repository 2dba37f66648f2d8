package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/room-finder/internal/application"
	"github.com/example/room-finder/internal/logging"
	"github.com/example/room-finder/internal/optimizer"
	"github.com/example/room-finder/internal/recurrence"
	"github.com/example/room-finder/internal/scheduler"
)

type reservationService interface {
	CreateReservation(ctx context.Context, callerID string, params application.CreateReservationParams) (application.CommitResult, error)
	QuickReserve(ctx context.Context, callerID string, params application.QuickReserveParams) (application.CommitResult, error)
	GetReservation(ctx context.Context, id string) (scheduler.Reservation, error)
	MoveReservation(ctx context.Context, callerID, id, roomID, start, end string) (scheduler.Reservation, error)
	DeleteReservation(ctx context.Context, callerID, id string, cascade bool) ([]scheduler.Reservation, error)
	CancelReservationByTime(ctx context.Context, callerID, roomName, date, start string) ([]scheduler.Reservation, error)
	ListMyReservations(ctx context.Context, callerID, date string) ([]scheduler.Reservation, error)
	ListReservations(ctx context.Context, filter scheduler.Filter) []scheduler.Reservation
	FindOptimalTimes(ctx context.Context, callerID string, durationMinutes int) ([]optimizer.Window, error)
	RankWindows(ctx context.Context, params application.RankParams) ([]optimizer.Window, error)
	GetAvailableRooms(ctx context.Context, callerID, date, start, end, floorID string) ([]application.AvailableRoom, error)
}

type calendarEncoder interface {
	Encode(w io.Writer, reservations []scheduler.Reservation) error
}

// ReservationHandler serves committed reservations and time queries.
type ReservationHandler struct {
	service   reservationService
	calendar  calendarEncoder
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, calendar calendarEncoder, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{
		service:   service,
		calendar:  calendar,
		responder: newResponder(logger),
		logger:    logging.Or(logger),
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	result, err := h.service.CreateReservation(r.Context(), caller, req.toParams())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toCommitResponse(result))
}

func (h *ReservationHandler) Quick(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req quickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	result, err := h.service.QuickReserve(r.Context(), caller, req.toParams())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toCommitResponse(result))
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	res, err := h.service.GetReservation(r.Context(), r.PathValue("id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, res)
}

// Update moves a reservation. A blank room_id keeps the room and only resizes.
func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	moved, err := h.service.MoveReservation(r.Context(), caller, r.PathValue("id"), strings.TrimSpace(req.RoomID), req.StartTime, req.EndTime)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, moved)
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	cascade, _ := strconv.ParseBool(query(r, "cascade"))
	caller, _ := CallerFromContext(r.Context())
	removed, err := h.service.DeleteReservation(r.Context(), caller, r.PathValue("id"), cascade)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, removedResponse{Removed: nonNil(removed)})
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	removed, err := h.service.CancelReservationByTime(r.Context(), caller, strings.TrimSpace(req.Room), strings.TrimSpace(req.Date), req.StartTime)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, removedResponse{Removed: nonNil(removed)})
}

// List returns the caller's own reservations when mine=true, and otherwise
// every reservation matching the date, room and attendee filters.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	caller, _ := CallerFromContext(ctx)
	if mine, _ := strconv.ParseBool(query(r, "mine")); mine {
		reservations, err := h.service.ListMyReservations(ctx, caller, query(r, "date"))
		if err != nil {
			h.responder.handleServiceError(ctx, w, err)
			return
		}
		h.responder.writeJSON(ctx, w, http.StatusOK, listResponse[scheduler.Reservation]{Items: nonNil(reservations)})
		return
	}

	reservations := h.service.ListReservations(ctx, filterFrom(r))
	h.responder.writeJSON(ctx, w, http.StatusOK, listResponse[scheduler.Reservation]{Items: nonNil(reservations)})
}

func (h *ReservationHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil || h.calendar == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	reservations := h.service.ListReservations(ctx, filterFrom(r))

	var buf bytes.Buffer
	if err := h.calendar.Encode(&buf, reservations); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	logging.Component(ctx, h.logger, "handler", "ReservationHandler", "Export").
		DebugContext(ctx, "calendar exported", "count", len(reservations))

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="reservations.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// OptimalTimes ranks windows for the caller's pending meeting, or for the
// explicit required and optional ids when either is given.
func (h *ReservationHandler) OptimalTimes(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	duration, err := strconv.Atoi(query(r, "duration"))
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidDuration)
		return
	}

	var windows []optimizer.Window
	required, optional := splitList(query(r, "required")), splitList(query(r, "optional"))
	if len(required) > 0 || len(optional) > 0 {
		windows, err = h.service.RankWindows(ctx, application.RankParams{
			Required:        required,
			Optional:        optional,
			Date:            query(r, "date"),
			DurationMinutes: duration,
			FloorID:         query(r, "floor_id"),
		})
	} else {
		caller, _ := CallerFromContext(ctx)
		windows, err = h.service.FindOptimalTimes(ctx, caller, duration)
	}
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, listResponse[optimizer.Window]{Items: nonNil(windows)})
}

func (h *ReservationHandler) AvailableRooms(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	rooms, err := h.service.GetAvailableRooms(r.Context(), caller, query(r, "date"), query(r, "start"), query(r, "end"), query(r, "floor_id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResponse[application.AvailableRoom]{Items: nonNil(rooms)})
}

func filterFrom(r *http.Request) scheduler.Filter {
	return scheduler.Filter{
		Date:       query(r, "date"),
		RoomID:     query(r, "room_id"),
		AttendeeID: query(r, "attendee_id"),
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// pattern accepts the same labels as the session recurrence setting. Unknown
// labels pass through so validation can reject them by name.
func pattern(value string) recurrence.Pattern {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if p, err := recurrence.ParsePattern(value); err == nil {
		return p
	}
	return recurrence.Pattern(value)
}

type reservationRequest struct {
	Title               string   `json:"title"`
	RoomID              string   `json:"room_id"`
	Date                string   `json:"date"`
	StartTime           string   `json:"start_time"`
	EndTime             string   `json:"end_time"`
	RecurrenceType      string   `json:"recurrence_type"`
	RecurrenceEndDate   string   `json:"recurrence_end_date"`
	OrganizerID         string   `json:"organizer_id"`
	RequiredAttendeeIDs []string `json:"required_attendee_ids"`
	OptionalAttendeeIDs []string `json:"optional_attendee_ids"`
}

func (r reservationRequest) toParams() application.CreateReservationParams {
	return application.CreateReservationParams{
		Title:             r.Title,
		RoomID:            strings.TrimSpace(r.RoomID),
		Date:              r.Date,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		Recurrence:        pattern(r.RecurrenceType),
		RecurrenceEndDate: strings.TrimSpace(r.RecurrenceEndDate),
		OrganizerID:       strings.TrimSpace(r.OrganizerID),
		Required:          r.RequiredAttendeeIDs,
		Optional:          r.OptionalAttendeeIDs,
	}
}

type quickRequest struct {
	Title             string   `json:"title"`
	Organizer         string   `json:"organizer"`
	Required          []string `json:"required"`
	Optional          []string `json:"optional"`
	Room              string   `json:"room"`
	Date              string   `json:"date"`
	StartTime         string   `json:"start_time"`
	EndTime           string   `json:"end_time"`
	RecurrenceType    string   `json:"recurrence_type"`
	RecurrenceEndDate string   `json:"recurrence_end_date"`
}

func (r quickRequest) toParams() application.QuickReserveParams {
	return application.QuickReserveParams{
		Title:             r.Title,
		OrganizerName:     strings.TrimSpace(r.Organizer),
		RequiredNames:     r.Required,
		OptionalNames:     r.Optional,
		RoomName:          strings.TrimSpace(r.Room),
		Date:              r.Date,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		Recurrence:        pattern(r.RecurrenceType),
		RecurrenceEndDate: strings.TrimSpace(r.RecurrenceEndDate),
	}
}

type moveRequest struct {
	RoomID    string `json:"room_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type cancelRequest struct {
	Room      string `json:"room"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

type removedResponse struct {
	Removed []scheduler.Reservation `json:"removed"`
}

type commitResponse struct {
	Reservations []scheduler.Reservation      `json:"reservations"`
	Warnings     []application.ConflictWarning `json:"warnings"`
}

func toCommitResponse(result application.CommitResult) commitResponse {
	return commitResponse{
		Reservations: nonNil(result.Reservations),
		Warnings:     nonNil(result.Warnings),
	}
}
