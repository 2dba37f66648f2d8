package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-finder/internal/availability"
	"github.com/example/room-finder/internal/directory"
)

type directoryService interface {
	Buildings(ctx context.Context) []directory.Building
	Floors(ctx context.Context, buildingID string) ([]directory.Floor, error)
	Rooms(ctx context.Context, floorID string) ([]directory.Room, error)
	SearchEmployees(ctx context.Context, query string) []directory.Employee
	BusyIntervals(ctx context.Context, employeeID, date string) ([]availability.BusyInterval, error)
	Resolve(ctx context.Context, kind, name string) (directory.Match, error)
}

// DirectoryHandler serves read-only building, room and employee lookups.
type DirectoryHandler struct {
	service   directoryService
	responder responder
}

func NewDirectoryHandler(service directoryService, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{service: service, responder: newResponder(logger)}
}

func (h *DirectoryHandler) Buildings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResponse[directory.Building]{Items: nonNil(h.service.Buildings(r.Context()))})
}

func (h *DirectoryHandler) Floors(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	floors, err := h.service.Floors(r.Context(), query(r, "building_id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResponse[directory.Floor]{Items: nonNil(floors)})
}

func (h *DirectoryHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rooms, err := h.service.Rooms(r.Context(), query(r, "floor_id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResponse[directory.Room]{Items: nonNil(rooms)})
}

func (h *DirectoryHandler) Employees(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	employees := h.service.SearchEmployees(r.Context(), query(r, "q"))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResponse[directory.Employee]{Items: nonNil(employees)})
}

func (h *DirectoryHandler) Busy(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	intervals, err := h.service.BusyIntervals(r.Context(), r.PathValue("id"), query(r, "date"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResponse[availability.BusyInterval]{Items: nonNil(intervals)})
}

func (h *DirectoryHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	match, err := h.service.Resolve(r.Context(), query(r, "kind"), query(r, "name"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, match)
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func query(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
