package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-finder/internal/availability"
	"github.com/example/room-finder/internal/directory"
	"github.com/example/room-finder/internal/logging"
	"github.com/example/room-finder/internal/optimizer"
	"github.com/example/room-finder/internal/persistence"
	"github.com/example/room-finder/internal/recurrence"
	"github.com/example/room-finder/internal/scheduler"
	"github.com/example/room-finder/internal/timegrid"
)

const serviceName = "ReservationService"

// AvailabilityIndex answers busy-time questions for employees.
type AvailabilityIndex interface {
	optimizer.Availability
	Intervals(employeeID, date string) ([]availability.BusyInterval, error)
}

// Observer receives operation outcomes for metrics.
type Observer interface {
	ObserveOperation(operation, outcome string, elapsed time.Duration)
	SetReservationCount(n int)
}

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, string, time.Duration) {}
func (noopObserver) SetReservationCount(int)                        {}

// Dependencies wires a ReservationService.
type Dependencies struct {
	Catalog      *directory.Catalog
	Availability AvailabilityIndex
	// Reservations receives the full reservation list after every committed mutation.
	Reservations persistence.ReservationStore
	// Preferences keeps each caller's last building and floor.
	Preferences persistence.PreferenceStore
	IDGenerator func() string
	// GroupIDGenerator names recurrence groups. Defaults to IDGenerator.
	GroupIDGenerator func() string
	Now              func() time.Time
	Logger           *slog.Logger
	Observer         Observer
}

// ReservationService is the caller-facing operation layer over the engine.
type ReservationService struct {
	catalog      *directory.Catalog
	availability AvailabilityIndex
	grid         *scheduler.Grid
	ranker       *optimizer.Engine
	reservations persistence.ReservationStore
	preferences  persistence.PreferenceStore
	newGroupID   func() string
	now          func() time.Time
	logger       *slog.Logger
	observer     Observer

	mu       sync.Mutex
	sessions map[string]*session

	// persistMu orders snapshots so a save never overwrites a newer one.
	persistMu sync.Mutex
}

// NewReservationService validates deps and builds an empty reservation grid.
func NewReservationService(deps Dependencies) (*ReservationService, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("application: catalog is required")
	}
	if deps.Availability == nil {
		return nil, fmt.Errorf("application: availability index is required")
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	groupGen := deps.GroupIDGenerator
	if groupGen == nil {
		groupGen = idGen
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	var observer Observer = noopObserver{}
	if deps.Observer != nil {
		observer = deps.Observer
	}

	grid := scheduler.NewGrid(deps.Catalog, idGen, now)
	return &ReservationService{
		catalog:      deps.Catalog,
		availability: deps.Availability,
		grid:         grid,
		ranker:       optimizer.New(deps.Availability, grid),
		reservations: deps.Reservations,
		preferences:  deps.Preferences,
		newGroupID:   groupGen,
		now:          now,
		logger:       logging.Or(deps.Logger),
		observer:     observer,
		sessions:     make(map[string]*session),
	}, nil
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return logging.Component(ctx, s.logger, "service", serviceName, operation, attrs...)
}

// observe records the outcome of an operation. Call it deferred with the named error.
func (s *ReservationService) observe(operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = ErrorKind(err)
	}
	s.observer.ObserveOperation(operation, outcome, s.now().Sub(started))
}

// Restore loads the previously committed reservation list into the grid.
func (s *ReservationService) Restore(ctx context.Context) (err error) {
	logger := s.loggerWith(ctx, "Restore")
	if s.reservations == nil {
		return nil
	}
	stored, err := s.reservations.LoadReservations(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load reservations", "error", err)
		return fmt.Errorf("application: load reservations: %w", err)
	}

	restored := make([]scheduler.Reservation, 0, len(stored))
	for _, r := range stored {
		restored = append(restored, fromStored(r))
	}
	if err := s.grid.Restore(restored); err != nil {
		logger.ErrorContext(ctx, "failed to restore reservations", "error", err)
		return fmt.Errorf("application: restore reservations: %w", err)
	}
	s.observer.SetReservationCount(s.grid.Len())
	logger.InfoContext(ctx, "reservations restored", "count", len(restored))
	return nil
}

// persist writes the whole reservation list through to the store. The grid
// stays authoritative when the write fails.
func (s *ReservationService) persist(ctx context.Context, logger *slog.Logger) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.observer.SetReservationCount(s.grid.Len())
	if s.reservations == nil {
		return
	}
	all := s.grid.List(scheduler.Filter{})
	stored := make([]persistence.Reservation, 0, len(all))
	for _, r := range all {
		stored = append(stored, toStored(r))
	}
	if err := s.reservations.SaveReservations(ctx, stored); err != nil {
		logger.ErrorContext(ctx, "failed to persist reservations", "error", err)
	}
}

// sessionFor returns the caller's session, creating it on first use with the
// stored location preference.
func (s *ReservationService) sessionFor(ctx context.Context, employeeID string) (*session, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, ErrUnauthorized
	}
	if _, err := s.catalog.Employee(employeeID); err != nil {
		return nil, ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[employeeID]; ok {
		return sess, nil
	}

	sess := newSession(employeeID, s.now().Format(recurrence.DateLayout))
	if s.preferences != nil {
		pref, err := s.preferences.GetPreference(ctx, employeeID)
		switch {
		case err == nil:
			if _, bErr := s.catalog.Building(pref.BuildingID); bErr == nil {
				sess.buildingID = pref.BuildingID
				if f, fErr := s.catalog.Floor(pref.FloorID); fErr == nil && f.BuildingID == pref.BuildingID {
					sess.floorID = pref.FloorID
				}
			}
		case errors.Is(err, persistence.ErrNotFound):
		default:
			s.loggerWith(ctx, "sessionFor", "employee_id", employeeID).
				WarnContext(ctx, "failed to load location preference", "error", err)
		}
	}
	s.sessions[employeeID] = sess
	return sess, nil
}

func (s *ReservationService) savePreference(ctx context.Context, logger *slog.Logger, sess *session) {
	if s.preferences == nil {
		return
	}
	pref := persistence.Preference{
		EmployeeID: sess.employeeID,
		BuildingID: sess.buildingID,
		FloorID:    sess.floorID,
		UpdatedAt:  s.now(),
	}
	if err := s.preferences.SavePreference(ctx, pref); err != nil {
		logger.WarnContext(ctx, "failed to save location preference", "error", err)
	}
}

// candidateRooms returns the rooms of floorID, or the whole catalog when blank.
func (s *ReservationService) candidateRooms(floorID string) []string {
	var rooms []directory.Room
	if floorID != "" {
		rooms = s.catalog.RoomsOn(floorID)
	} else {
		rooms = s.catalog.Rooms()
	}
	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	return ids
}

func toStored(r scheduler.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:                  r.ID,
		RoomID:              r.RoomID,
		Date:                r.Date,
		StartTime:           r.StartTime,
		EndTime:             r.EndTime,
		Title:               r.Title,
		OrganizerID:         r.OrganizerID,
		RequiredAttendeeIDs: r.RequiredAttendeeIDs,
		OptionalAttendeeIDs: r.OptionalAttendeeIDs,
		RecurrenceType:      string(r.RecurrenceType),
		RecurrenceGroupID:   r.RecurrenceGroupID,
		CreatedBy:           r.CreatedBy,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func fromStored(r persistence.Reservation) scheduler.Reservation {
	pattern, err := recurrence.ParsePattern(r.RecurrenceType)
	if err != nil {
		pattern = recurrence.PatternNone
	}
	return scheduler.Reservation{
		ID:                  r.ID,
		RoomID:              r.RoomID,
		Date:                r.Date,
		StartTime:           r.StartTime,
		EndTime:             r.EndTime,
		Title:               r.Title,
		OrganizerID:         r.OrganizerID,
		RequiredAttendeeIDs: r.RequiredAttendeeIDs,
		OptionalAttendeeIDs: r.OptionalAttendeeIDs,
		RecurrenceType:      pattern,
		RecurrenceGroupID:   r.RecurrenceGroupID,
		CreatedBy:           r.CreatedBy,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

// mapEngineError translates engine errors into application errors.
func mapEngineError(err error) error {
	if err == nil {
		return nil
	}
	var conflict *scheduler.ConflictError
	if errors.As(err, &conflict) {
		out := &ConflictError{
			RoomID:         conflict.RoomID,
			Dates:          []string{conflict.Date},
			ReservationIDs: conflict.ReservationIDs,
		}
		for _, slot := range conflict.Slots {
			out.Slots = append(out.Slots, slot.String())
		}
		return out
	}

	vErr := &ValidationError{}
	switch {
	case errors.Is(err, timegrid.ErrNotFound),
		errors.Is(err, timegrid.ErrOutOfRange),
		errors.Is(err, timegrid.ErrInvalidTime),
		errors.Is(err, timegrid.ErrEmptyRange),
		errors.Is(err, scheduler.ErrInvalidRange):
		vErr.add("time", err.Error())
	case errors.Is(err, scheduler.ErrInvalidDate),
		errors.Is(err, recurrence.ErrInvalidDate),
		errors.Is(err, availability.ErrInvalidDate):
		vErr.add("date", err.Error())
	case errors.Is(err, recurrence.ErrInvalidPattern):
		vErr.add("recurrence_type", err.Error())
	case errors.Is(err, recurrence.ErrTooManyOccurrences):
		vErr.add("recurrence_end_date", err.Error())
	case errors.Is(err, optimizer.ErrInvalidDuration):
		vErr.add("duration", err.Error())
	case errors.Is(err, scheduler.ErrNotFound),
		errors.Is(err, directory.ErrNotFound),
		errors.Is(err, availability.ErrUnknownEmployee),
		errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return err
	}
	return vErr
}
