package model

import (
    "fmt"
    "time"
)

// Seat states as stored in session_seats.state.  A seat is claimed by a
// confirmed order only when its state is SOLD; order existence alone never
// blocks a seat.
const (
    SeatAvailable = "AVAILABLE"
    SeatSold      = "SOLD"
)

// Session is a scheduled screening with its own seat map and the set of
// ticket tiers that may be sold for it.  Sessions are owned by the catalog
// service; this core only reads them.
//
// Fields:
//  ID       – primary key identifier.
//  Title    – display title of the screening.
//  StartsAt – scheduled start time in UTC.
type Session struct {
    ID       uint64    // sessions.id
    Title    string    // sessions.title
    StartsAt time.Time // sessions.starts_at
}

// SeatRef identifies a seat by its position in the session's seat map.
// Row/column pairs are unique within a session.
type SeatRef struct {
    Row uint32 `json:"row"` // session_seats.seat_row
    Col uint32 `json:"col"` // session_seats.seat_col
}

// Label renders the seat position as the stable display label stored on
// orders, e.g. "3-7" for row 3, column 7.
func (s SeatRef) Label() string {
    return fmt.Sprintf("%d-%d", s.Row, s.Col)
}

// Seat is one cell of a session's seat map together with its current
// availability state.
type Seat struct {
    Ref   SeatRef // position within the seat map
    State string  // session_seats.state (AVAILABLE or SOLD)
}

// SessionSnapshot is a point-in-time read of everything the validator
// needs to judge a booking request: the session, its seat map and the
// identifiers of the ticket tiers valid for it.  A snapshot is plain data;
// holding one grants no claim on any seat.
type SessionSnapshot struct {
    Session Session  // session header row
    Seats   []Seat   // seat map ordered by row, then column
    TierIDs []uint64 // ticket tiers sellable for this session
}

// HasTier reports whether the given ticket tier may be sold for this
// session.
func (s *SessionSnapshot) HasTier(tierID uint64) bool {
    for _, id := range s.TierIDs {
        if id == tierID {
            return true
        }
    }
    return false
}

// FindSeat returns the seat at the given position, or nil when the seat
// map has no such cell.
func (s *SessionSnapshot) FindSeat(ref SeatRef) *Seat {
    for i := range s.Seats {
        if s.Seats[i].Ref == ref {
            return &s.Seats[i]
        }
    }
    return nil
}
