// Package booking holds the pure booking-domain logic: validating a
// proposed seat/tier selection against a session snapshot.  Nothing in
// this package performs I/O or mutates shared state, so its functions are
// safe to call repeatedly and concurrently.  Snapshot freshness is the
// caller's concern: a passing validation grants no claim on any seat, and
// the settlement-time seat transition is the only race arbiter.
package booking

import (
    "fmt"

    "github.com/cinetix/box-office/internal/model"
)

// Rejection reason codes.  Every rejection carries one of these alongside
// a human-readable message so callers can branch without parsing text.
const (
    ReasonUnknownSession    = "unknown_session"
    ReasonInvalidTier       = "invalid_tier"
    ReasonPriceMismatch     = "price_mismatch"
    ReasonUnknownSeat       = "unknown_seat"
    ReasonSeatCountMismatch = "seat_count_mismatch"
    ReasonSeatUnavailable   = "seat_unavailable"
)

// ValidationError is a recoverable rejection of a booking request.  It is
// reported to the caller verbatim and is never fatal.
type ValidationError struct {
    Code    string // machine-checkable reason code
    Message string // human-readable explanation
}

func (e *ValidationError) Error() string { return e.Message }

func reject(code, format string, args ...interface{}) *ValidationError {
    return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Selection is a buyer's proposed booking: the requested ticket tiers, the
// requested seats and the total price the client claims to have computed.
type Selection struct {
    TierIDs []uint64
    Seats   []model.SeatRef
    Price   uint32
}

// ValidateSelection checks a selection against a session snapshot and the
// resolved tier records.  tiers must be the records for sel.TierIDs in
// request order (duplicates included), as returned by TierRepo.GetByIDs.
// The checks run in a fixed order and short-circuit on the first failure:
// session existence, tier validity, price sum, seat existence and count,
// seat availability.  A nil return means the selection is accepted.
func ValidateSelection(snap *model.SessionSnapshot, tiers []model.TicketTier, sel Selection) error {
    if snap == nil {
        return reject(ReasonUnknownSession, "unknown session")
    }

    for _, id := range sel.TierIDs {
        if !snap.HasTier(id) {
            return reject(ReasonInvalidTier, "ticket tier %d is not valid for this session", id)
        }
    }

    priceByID := make(map[uint64]uint32, len(tiers))
    for _, t := range tiers {
        priceByID[t.ID] = t.Price
    }
    var total uint32
    for _, id := range sel.TierIDs {
        price, ok := priceByID[id]
        if !ok {
            return reject(ReasonInvalidTier, "ticket tier %d is not valid for this session", id)
        }
        total += price
    }
    if total != sel.Price {
        return reject(ReasonPriceMismatch, "claimed price %d does not match ticket total %d", sel.Price, total)
    }

    seen := make(map[model.SeatRef]struct{}, len(sel.Seats))
    for _, ref := range sel.Seats {
        if snap.FindSeat(ref) == nil {
            return reject(ReasonUnknownSeat, "seat %s does not exist in this session", ref.Label())
        }
        seen[ref] = struct{}{}
    }
    if len(seen) != len(sel.Seats) {
        return reject(ReasonSeatCountMismatch,
            "seat count mismatch: %d seats requested but only %d distinct seats matched",
            len(sel.Seats), len(seen))
    }

    for _, ref := range sel.Seats {
        if seat := snap.FindSeat(ref); seat.State != model.SeatAvailable {
            return reject(ReasonSeatUnavailable, "seat %s is already taken", ref.Label())
        }
    }
    return nil
}
