// Package http provides HTTP handlers and middleware for the room finder API.
//
// Every route except /metrics requires the caller's employee id in the
// `X-Employee-ID` header. Missing or unknown ids are rejected with 401.
//
// Directory:
//   - GET /buildings, GET /floors?building_id=, GET /rooms?floor_id=
//   - GET /employees?q=, GET /employees/{id}/busy?date=, GET /resolve?kind=&name=
//
// Pending meeting of the caller:
//   - GET /session, PUT /session/date, PUT /session/location, PUT /session/details
//   - POST /session/attendees, DELETE /session/attendees/{id}
//   - POST /session/entities, DELETE /session/entities/{kind}/{id}
//   - PUT /session/selection, DELETE /session/selection, POST /session/commit
//
// Reservations:
//   - GET /optimal-times?duration=, GET /available-rooms?date=&start=&end=&floor_id=
//   - GET /reservations?date=&room_id=&attendee_id=&mine=, POST /reservations,
//     POST /reservations/quick, POST /reservations/cancel
//   - GET /reservations/{id}, PUT /reservations/{id} (move or resize),
//     DELETE /reservations/{id}?cascade=
//   - GET /reservations/export.ics?date=
//
// Errors are JSON `{message, error_code, errors}`: 400 for malformed bodies,
// 401 for unknown callers, 404 for missing resources, 409 for conflicts and
// 422 for validation failures.
package http
