// Package repository defines error values that are reused across multiple
// repositories. These sentinel and typed values allow higher layers such
// as handlers to distinguish between different failure scenarios: an
// unknown order token maps to a client error while a seat conflict at
// settlement time maps to HTTP 409 and an operational refund process.
package repository

import (
    "errors"
    "fmt"
    "strings"

    "github.com/cinetix/box-office/internal/model"
)

// ErrSessionNotFound is returned when a session snapshot is requested
// for an identifier the catalog does not know.
var ErrSessionNotFound = errors.New("session not found")

// ErrOrderNotFound is returned when no order exists for a given token.
var ErrOrderNotFound = errors.New("order not found")

// ErrAlreadyPaid is returned when a payment request is re-issued for an
// order that has already settled. Handlers should translate this into an
// HTTP 409 response.
var ErrAlreadyPaid = errors.New("order already paid")

// SeatConflictError reports the seats that could not transition to SOLD
// because they were no longer available at settlement time. The whole
// MarkSold operation aborts; no seat in the request changes state.
type SeatConflictError struct {
    Seats []model.SeatRef // conflicting seats, in request order
}

// Error lists the conflicting seat labels, e.g.
// "seats already sold: 1-2, 1-3".
func (e *SeatConflictError) Error() string {
    labels := make([]string, 0, len(e.Seats))
    for _, s := range e.Seats {
        labels = append(labels, s.Label())
    }
    return fmt.Sprintf("seats already sold: %s", strings.Join(labels, ", "))
}
