package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/example/room-finder/internal/optimizer"
	"github.com/example/room-finder/internal/recurrence"
	"github.com/example/room-finder/internal/scheduler"
	"github.com/example/room-finder/internal/timegrid"
)

// SelectRange marks a pending room and time range on the caller's date. It
// fails with a conflict when any slot is already reserved.
func (s *ReservationService) SelectRange(ctx context.Context, callerID, roomID, start, end string) (state SessionState, err error) {
	started := s.now()
	defer func() { s.observe("SelectRange", started, err) }()

	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return SessionState{}, err
	}
	if _, err := s.catalog.Room(roomID); err != nil {
		return SessionState{}, mapEngineError(err)
	}
	slots, err := timegrid.NewRange(start, end)
	if err != nil {
		return SessionState{}, mapEngineError(err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if conflict := s.occupied(sess.date, roomID, slots); conflict != nil {
		return SessionState{}, conflict
	}
	sess.selection = &selection{roomID: roomID, slots: slots}
	return sess.snapshot(), nil
}

// ClearSelection drops the pending room and time range.
func (s *ReservationService) ClearSelection(ctx context.Context, callerID string) (SessionState, error) {
	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return SessionState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.selection = nil
	return sess.snapshot(), nil
}

// occupied reports the reserved slots of r, or nil when the room is free.
func (s *ReservationService) occupied(date, roomID string, r timegrid.Range) *ConflictError {
	var conflict *ConflictError
	for _, slot := range r.Slots() {
		id, ok := s.grid.ReservationIDAt(date, roomID, slot)
		if !ok {
			continue
		}
		if conflict == nil {
			conflict = &ConflictError{RoomID: roomID, Dates: []string{date}}
		}
		conflict.Slots = append(conflict.Slots, slot.String())
		if !slices.Contains(conflict.ReservationIDs, id) {
			conflict.ReservationIDs = append(conflict.ReservationIDs, id)
		}
	}
	return conflict
}

// CreateReservation validates and commits a reservation, expanded into one
// reservation per recurrence date. Either every date is booked or none is.
func (s *ReservationService) CreateReservation(ctx context.Context, callerID string, params CreateReservationParams) (result CommitResult, err error) {
	started := s.now()
	defer func() { s.observe("CreateReservation", started, err) }()

	logger := s.loggerWith(ctx, "CreateReservation", "caller_id", callerID, "room_id", params.RoomID, "date", params.Date)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation created", "count", len(result.Reservations), "warnings", len(result.Warnings))
	}()

	if _, err = s.sessionFor(ctx, callerID); err != nil {
		return CommitResult{}, err
	}
	return s.commit(ctx, logger, callerID, params)
}

// CommitSelection commits the caller's pending meeting and resets it,
// keeping the date and location.
func (s *ReservationService) CommitSelection(ctx context.Context, callerID string) (result CommitResult, err error) {
	started := s.now()
	defer func() { s.observe("CommitSelection", started, err) }()

	logger := s.loggerWith(ctx, "CommitSelection", "caller_id", callerID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to commit selection", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "selection committed", "count", len(result.Reservations))
	}()

	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return CommitResult{}, err
	}

	// Held through the commit: a same-caller edit lands either before the
	// pending meeting is read or after it is reset.
	sess.mu.Lock()
	defer sess.mu.Unlock()
	params := CreateReservationParams{
		Title:             sess.title,
		Date:              sess.date,
		Recurrence:        sess.recurrence,
		RecurrenceEndDate: sess.recurrenceEndDate,
		OrganizerID:       sess.attendees.Organizer(),
		Required:          sess.attendees.Required(),
		Optional:          sess.attendees.Optional(),
	}
	if sess.selection != nil {
		params.RoomID = sess.selection.roomID
		params.StartTime = sess.selection.slots.StartTime()
		params.EndTime = sess.selection.slots.EndTime()
	}

	result, err = s.commit(ctx, logger, callerID, params)
	if err != nil {
		return CommitResult{}, err
	}

	sess.selection = nil
	sess.attendees = AttendeeSet{}
	sess.entities = nil
	clear(sess.direct)
	sess.title = ""
	sess.recurrence = recurrence.PatternNone
	sess.recurrenceEndDate = ""
	return result, nil
}

// QuickReserve resolves names to ids and commits in one call. The date
// defaults to the caller's working date.
func (s *ReservationService) QuickReserve(ctx context.Context, callerID string, params QuickReserveParams) (result CommitResult, err error) {
	started := s.now()
	defer func() { s.observe("QuickReserve", started, err) }()

	logger := s.loggerWith(ctx, "QuickReserve", "caller_id", callerID, "room_name", params.RoomName)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to quick reserve", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "quick reservation created", "count", len(result.Reservations))
	}()

	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return CommitResult{}, err
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.RoomName) == "" {
		vErr.add("room_name", "room name is required")
	}
	organizerID := ""
	if name := strings.TrimSpace(params.OrganizerName); name != "" {
		if emp, rErr := s.catalog.ResolveEmployee(name); rErr == nil {
			organizerID = emp.ID
		} else {
			vErr.add("organizer_name", fmt.Sprintf("unknown employee: %s", name))
		}
	}
	required, missingRequired := s.resolveNames(params.RequiredNames)
	if len(missingRequired) > 0 {
		vErr.add("required_names", "unknown employees: "+strings.Join(missingRequired, ", "))
	}
	optional, missingOptional := s.resolveNames(params.OptionalNames)
	if len(missingOptional) > 0 {
		vErr.add("optional_names", "unknown employees: "+strings.Join(missingOptional, ", "))
	}
	if vErr.HasErrors() {
		return CommitResult{}, vErr
	}

	room, err := s.catalog.ResolveRoom(params.RoomName)
	if err != nil {
		return CommitResult{}, mapEngineError(err)
	}

	return s.commit(ctx, logger, callerID, CreateReservationParams{
		Title:             params.Title,
		RoomID:            room.ID,
		Date:              s.workingDate(sess, params.Date),
		StartTime:         params.StartTime,
		EndTime:           params.EndTime,
		Recurrence:        params.Recurrence,
		RecurrenceEndDate: params.RecurrenceEndDate,
		OrganizerID:       organizerID,
		Required:          required,
		Optional:          optional,
	})
}

func (s *ReservationService) resolveNames(names []string) (ids, missing []string) {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		emp, err := s.catalog.ResolveEmployee(name)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		ids = append(ids, emp.ID)
	}
	return ids, missing
}

func (s *ReservationService) commit(ctx context.Context, logger *slog.Logger, callerID string, params CreateReservationParams) (CommitResult, error) {
	params.Title = strings.TrimSpace(params.Title)
	params.Date = strings.TrimSpace(params.Date)
	if params.Recurrence == "" {
		params.Recurrence = recurrence.PatternNone
	}

	vErr := validateCommit(params)
	organizer, required, optional := exclusiveRoles(params.OrganizerID, params.Required, params.Optional)
	everyone := append(append(slices.Clip(required), optional...), organizer)
	if missing := s.catalog.MissingEmployeeIDs(nonEmpty(everyone)); len(missing) > 0 {
		vErr.add("attendees", "unknown employee ids: "+strings.Join(missing, ", "))
	}
	if vErr.HasErrors() {
		return CommitResult{}, vErr
	}

	if _, err := s.catalog.Room(params.RoomID); err != nil {
		return CommitResult{}, mapEngineError(err)
	}
	slots, err := timegrid.NewRange(params.StartTime, params.EndTime)
	if err != nil {
		return CommitResult{}, mapEngineError(err)
	}

	end := params.Date
	if params.Recurrence.Repeats() {
		end = params.RecurrenceEndDate
	}
	dates, err := recurrence.Expand(params.Date, end, params.Recurrence)
	if err != nil {
		return CommitResult{}, mapEngineError(err)
	}
	if clashes := recurrence.Conflicts(dates, params.RoomID, slots, s.grid); len(clashes) > 0 {
		return CommitResult{}, &ConflictError{RoomID: params.RoomID, Dates: clashes}
	}

	groupID := ""
	if params.Recurrence.Repeats() {
		groupID = s.newGroupID()
	}
	existing := make(map[string][]scheduler.Reservation, len(dates))
	drafts := make([]scheduler.Draft, 0, len(dates))
	for _, date := range dates {
		existing[date] = s.grid.List(scheduler.Filter{Date: date})
		drafts = append(drafts, scheduler.Draft{
			RoomID:              params.RoomID,
			Date:                date,
			Slots:               slots,
			Title:               params.Title,
			OrganizerID:         organizer,
			RequiredAttendeeIDs: required,
			OptionalAttendeeIDs: optional,
			RecurrenceType:      params.Recurrence,
			RecurrenceGroupID:   groupID,
			CreatedBy:           callerID,
		})
	}

	created, err := s.grid.CreateBatch(drafts)
	if err != nil {
		return CommitResult{}, mapEngineError(err)
	}
	s.persist(ctx, logger)

	result := CommitResult{Reservations: created}
	for _, r := range created {
		for _, c := range scheduler.DetectConflicts(existing[r.Date], r) {
			result.Warnings = append(result.Warnings, ConflictWarning{
				ReservationID: c.WithReservationID,
				Type:          string(c.Type),
				AttendeeID:    c.AttendeeID,
				RoomID:        c.RoomID,
				Date:          c.Date,
			})
		}
	}
	return result, nil
}

func validateCommit(params CreateReservationParams) *ValidationError {
	vErr := &ValidationError{}
	if params.Title == "" {
		vErr.add("title", "title is required")
	}
	if strings.TrimSpace(params.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}
	if strings.TrimSpace(params.StartTime) == "" || strings.TrimSpace(params.EndTime) == "" {
		vErr.add("time", "at least one time slot must be selected")
	}
	start, dateErr := recurrence.ParseDate(params.Date)
	if params.Date == "" {
		vErr.add("date", "date is required")
	} else if dateErr != nil {
		vErr.add("date", dateErr.Error())
	}
	if !params.Recurrence.Valid() {
		vErr.add("recurrence_type", fmt.Sprintf("unknown recurrence %q", params.Recurrence))
		return vErr
	}
	if params.Recurrence.Repeats() {
		if strings.TrimSpace(params.RecurrenceEndDate) == "" {
			vErr.add("recurrence_end_date", "recurrence end date is required for repeating reservations")
		} else if endDate, err := recurrence.ParseDate(params.RecurrenceEndDate); err != nil {
			vErr.add("recurrence_end_date", err.Error())
		} else if dateErr == nil && endDate.Before(start) {
			vErr.add("recurrence_end_date", "recurrence end date must not precede the start date")
		}
	}
	return vErr
}

// exclusiveRoles enforces one role per employee: the organizer wins over
// required, and required wins over optional. Order and first occurrence are kept.
func exclusiveRoles(organizer string, required, optional []string) (string, []string, []string) {
	var set AttendeeSet
	for _, id := range optional {
		set.Add(id, RoleOptional)
	}
	for _, id := range required {
		set.Add(id, RoleRequired)
	}
	set.Add(strings.TrimSpace(organizer), RoleOrganizer)
	return set.Organizer(), set.Required(), set.Optional()
}

func nonEmpty(values []string) []string {
	return slices.DeleteFunc(values, func(v string) bool { return v == "" })
}

// GetReservation returns one committed reservation.
func (s *ReservationService) GetReservation(ctx context.Context, id string) (scheduler.Reservation, error) {
	res, err := s.grid.Get(id)
	if err != nil {
		return scheduler.Reservation{}, mapEngineError(err)
	}
	return res, nil
}

// DeleteReservation removes a reservation, or its whole recurrence group when
// cascade is set.
func (s *ReservationService) DeleteReservation(ctx context.Context, callerID, id string, cascade bool) (removed []scheduler.Reservation, err error) {
	started := s.now()
	defer func() { s.observe("DeleteReservation", started, err) }()

	logger := s.loggerWith(ctx, "DeleteReservation", "caller_id", callerID, "reservation_id", id, "cascade", cascade)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to delete reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation deleted", "count", len(removed))
	}()

	if _, err = s.sessionFor(ctx, callerID); err != nil {
		return nil, err
	}
	removed, err = s.grid.Delete(id, cascade)
	if err != nil {
		return nil, mapEngineError(err)
	}
	s.persist(ctx, logger)
	return removed, nil
}

// MoveReservation relocates a reservation to another room and time on its date.
func (s *ReservationService) MoveReservation(ctx context.Context, callerID, id, roomID, start, end string) (moved scheduler.Reservation, err error) {
	started := s.now()
	defer func() { s.observe("MoveReservation", started, err) }()

	logger := s.loggerWith(ctx, "MoveReservation", "caller_id", callerID, "reservation_id", id, "room_id", roomID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to move reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation moved", "start_time", moved.StartTime, "end_time", moved.EndTime)
	}()

	if _, err = s.sessionFor(ctx, callerID); err != nil {
		return scheduler.Reservation{}, err
	}
	slots, err := timegrid.NewRange(start, end)
	if err != nil {
		return scheduler.Reservation{}, mapEngineError(err)
	}
	if roomID == "" {
		current, gErr := s.grid.Get(id)
		if gErr != nil {
			return scheduler.Reservation{}, mapEngineError(gErr)
		}
		roomID = current.RoomID
	}
	moved, err = s.grid.Move(id, roomID, slots)
	if err != nil {
		return scheduler.Reservation{}, mapEngineError(err)
	}
	s.persist(ctx, logger)
	return moved, nil
}

// ResizeReservation changes a reservation's times and keeps its room.
func (s *ReservationService) ResizeReservation(ctx context.Context, callerID, id, start, end string) (scheduler.Reservation, error) {
	return s.MoveReservation(ctx, callerID, id, "", start, end)
}

// CancelReservationByTime deletes the reservation holding the slot at start in
// the named room. The date defaults to the caller's working date.
func (s *ReservationService) CancelReservationByTime(ctx context.Context, callerID, roomName, date, start string) ([]scheduler.Reservation, error) {
	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	room, err := s.catalog.Room(roomName)
	if err != nil {
		if room, err = s.catalog.ResolveRoom(roomName); err != nil {
			return nil, mapEngineError(err)
		}
	}
	slot, err := timegrid.StartSlot(start)
	if err != nil {
		return nil, mapEngineError(err)
	}
	date = s.workingDate(sess, date)
	id, ok := s.grid.ReservationIDAt(date, room.ID, slot)
	if !ok {
		return nil, fmt.Errorf("%w: no reservation in %s at %s on %s", ErrNotFound, room.Name, start, date)
	}
	return s.DeleteReservation(ctx, callerID, id, false)
}

// FindOptimalTimes ranks windows for the caller's pending attendees on the
// working date, restricted to the selected floor when there is one. The
// organizer counts as a required attendee.
func (s *ReservationService) FindOptimalTimes(ctx context.Context, callerID string, durationMinutes int) (windows []optimizer.Window, err error) {
	started := s.now()
	defer func() { s.observe("FindOptimalTimes", started, err) }()

	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	req := optimizer.Request{
		Required:        sess.attendees.RankingRequired(),
		Optional:        sess.attendees.Optional(),
		Date:            sess.date,
		DurationMinutes: durationMinutes,
		RoomIDs:         s.candidateRooms(sess.floorID),
	}
	sess.mu.Unlock()

	windows, err = s.ranker.Rank(req)
	if err != nil {
		return nil, mapEngineError(err)
	}
	s.loggerWith(ctx, "FindOptimalTimes", "caller_id", callerID).
		DebugContext(ctx, "windows ranked", "count", len(windows), "date", req.Date)
	return windows, nil
}

// RankWindows ranks windows for explicit attendees without touching any session.
func (s *ReservationService) RankWindows(ctx context.Context, params RankParams) (windows []optimizer.Window, err error) {
	started := s.now()
	defer func() { s.observe("RankWindows", started, err) }()

	if missing := s.catalog.MissingEmployeeIDs(append(slices.Clip(params.Required), params.Optional...)); len(missing) > 0 {
		vErr := &ValidationError{}
		vErr.add("attendees", "unknown employee ids: "+strings.Join(missing, ", "))
		return nil, vErr
	}
	if params.FloorID != "" {
		if _, err := s.catalog.Floor(params.FloorID); err != nil {
			return nil, mapEngineError(err)
		}
	}
	if _, err := recurrence.ParseDate(params.Date); err != nil {
		return nil, mapEngineError(err)
	}
	_, required, optional := exclusiveRoles("", params.Required, params.Optional)
	windows, err = s.ranker.Rank(optimizer.Request{
		Required:        required,
		Optional:        optional,
		Date:            params.Date,
		DurationMinutes: params.DurationMinutes,
		RoomIDs:         s.candidateRooms(params.FloorID),
	})
	if err != nil {
		return nil, mapEngineError(err)
	}
	return windows, nil
}

// GetAvailableRooms lists rooms with no reservation in the window. Blank date
// and floor fall back to the caller's session.
func (s *ReservationService) GetAvailableRooms(ctx context.Context, callerID, date, start, end, floorID string) ([]AvailableRoom, error) {
	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	slots, err := timegrid.NewRange(start, end)
	if err != nil {
		return nil, mapEngineError(err)
	}
	date = s.workingDate(sess, date)
	if _, err := recurrence.ParseDate(date); err != nil {
		return nil, mapEngineError(err)
	}
	if floorID == "" {
		sess.mu.Lock()
		floorID = sess.floorID
		sess.mu.Unlock()
	}

	var out []AvailableRoom
	for _, roomID := range s.candidateRooms(floorID) {
		if !s.grid.RoomFree(date, roomID, slots) {
			continue
		}
		room, err := s.catalog.Room(roomID)
		if err != nil {
			return nil, mapEngineError(err)
		}
		entry := AvailableRoom{Room: room}
		if f, err := s.catalog.Floor(room.FloorID); err == nil {
			entry.FloorName = f.Name
		}
		if b, err := s.catalog.Building(room.BuildingID); err == nil {
			entry.BuildingName = b.Name
		}
		out = append(out, entry)
	}
	return out, nil
}

// ListMyReservations returns reservations the caller created or organizes,
// optionally limited to one date.
func (s *ReservationService) ListMyReservations(ctx context.Context, callerID, date string) ([]scheduler.Reservation, error) {
	if _, err := s.sessionFor(ctx, callerID); err != nil {
		return nil, err
	}
	return s.grid.List(scheduler.Filter{Date: strings.TrimSpace(date), OwnerID: strings.TrimSpace(callerID)}), nil
}

// ListReservations returns committed reservations matching the filter.
func (s *ReservationService) ListReservations(ctx context.Context, filter scheduler.Filter) []scheduler.Reservation {
	return s.grid.List(filter)
}
