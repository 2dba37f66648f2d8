package http

import (
	"net/http"
)

type RouterConfig struct {
	Directory    *DirectoryHandler
	Sessions     *SessionHandler
	Reservations *ReservationHandler
	// Employees authenticates callers through the X-Employee-ID header.
	Employees EmployeeLookup
	// Metrics is served unauthenticated at /metrics when set.
	Metrics http.Handler
	// Requests receives one observation per routed request.
	Requests   RequestObserver
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	observe := ObserveRequests(cfg.Requests)
	var identify func(http.Handler) http.Handler
	if cfg.Employees != nil {
		identify = RequireEmployee(cfg.Employees, nil)
	}
	handle := func(pattern string, h http.HandlerFunc) {
		var handler http.Handler = h
		if identify != nil {
			handler = identify(handler)
		}
		mux.Handle(pattern, observe(handler))
	}

	if d := cfg.Directory; d != nil {
		handle("GET /buildings", d.Buildings)
		handle("GET /floors", d.Floors)
		handle("GET /rooms", d.Rooms)
		handle("GET /employees", d.Employees)
		handle("GET /employees/{id}/busy", d.Busy)
		handle("GET /resolve", d.Resolve)
	}

	if s := cfg.Sessions; s != nil {
		handle("GET /session", s.Get)
		handle("PUT /session/date", s.SetDate)
		handle("PUT /session/location", s.SetLocation)
		handle("PUT /session/details", s.SetDetails)
		handle("POST /session/attendees", s.AddAttendees)
		handle("DELETE /session/attendees/{id}", s.RemoveAttendee)
		handle("POST /session/entities", s.AddEntity)
		handle("DELETE /session/entities/{kind}/{id}", s.RemoveEntity)
		handle("PUT /session/selection", s.Select)
		handle("DELETE /session/selection", s.ClearSelection)
		handle("POST /session/commit", s.Commit)
	}

	if res := cfg.Reservations; res != nil {
		handle("GET /optimal-times", res.OptimalTimes)
		handle("GET /available-rooms", res.AvailableRooms)
		handle("GET /reservations", res.List)
		handle("POST /reservations", res.Create)
		handle("POST /reservations/quick", res.Quick)
		handle("POST /reservations/cancel", res.Cancel)
		handle("GET /reservations/export.ics", res.Export)
		handle("GET /reservations/{id}", res.Get)
		handle("PUT /reservations/{id}", res.Update)
		handle("DELETE /reservations/{id}", res.Delete)
	}

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", observe(cfg.Metrics))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
