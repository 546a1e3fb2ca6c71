// Package http provides HTTP handlers and middleware for the event
// publisher API.
//
// The router exposes the following endpoints:
//   - POST /events: runs the publish transaction directly and returns the
//     `outcomeDTO` defined in publish_handler.go. Published outcomes answer
//     201, clean check-only runs 200, conflict outcomes 409 with the
//     conflict list, and collaborator failures 502 with any partial links.
//   - POST /delegated-events: files a delegated request on behalf of a
//     requester. The event is pre-checked against both collaborators and the
//     request is only recorded when the check is clean.
//   - GET /delegated-events/{id}: returns the stored request.
//   - POST /delegated-events/{id}/approve: re-runs the full publish and, on
//     success, transitions the request to its approved terminal state.
//   - POST /delegated-events/{id}/deny: records a denial with a reason.
//   - GET /owners, POST /owners, GET /owners/{id}, PUT /owners/{id},
//     DELETE /owners/{id}: event owner administration exchanging the
//     `ownerDTO` payload defined in owner_handler.go.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
