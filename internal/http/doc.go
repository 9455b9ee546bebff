// Package http provides HTTP handlers and middleware for the agenda API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at","user"} with the token also surfaced via
//     the `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content and
//     clears the cookie.
//   - GET /appointments, POST /appointments, GET/PUT/DELETE /appointments/{id}:
//     appointment lifecycle endpoints exchanging the `appointmentDTO` payload
//     defined in appointment_handler.go. Saves return the persisted record(s)
//     plus an optional WhatsApp hand-off payload; recurrence creations return
//     one record per occurrence. DELETE takes `?choice=single|series` for
//     members of a recurring series and answers 409 SERIES_CHOICE_REQUIRED
//     when the choice is missing.
//   - GET /consultants: the active consultant roster for sharing and owner
//     pickers. GET /brokers: the fixed broker roster for calendar columns.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
