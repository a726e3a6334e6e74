package repository

import (
    "context"
    "database/sql"

    "github.com/cinetix/box-office/internal/model"
)

// SessionRepo provides read-only access to sessions and their seat maps.
// The catalog service owns these tables; this core never writes to
// sessions or session_ticket_types, and session_seats are mutated only
// through the SeatRepo.  All timestamps are stored in UTC.
type SessionRepo struct {
    db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// GetSnapshot loads a point-in-time view of a session: its header row, the
// full seat map ordered by row and column, and the ticket tiers valid for
// it.  It returns ErrSessionNotFound when the session does not exist.  The
// snapshot is plain data; callers must not treat it as a reservation of
// any kind, since other requests may sell seats after the read.
func (r *SessionRepo) GetSnapshot(ctx context.Context, sessionID uint64) (*model.SessionSnapshot, error) {
    const q = `SELECT id, title, starts_at FROM sessions WHERE id = ?`
    var snap model.SessionSnapshot
    err := r.db.QueryRowContext(ctx, q, sessionID).Scan(
        &snap.Session.ID, &snap.Session.Title, &snap.Session.StartsAt,
    )
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, ErrSessionNotFound
        }
        return nil, err
    }

    // Seat map, ordered for deterministic output.
    const seatQ = `SELECT seat_row, seat_col, state
                   FROM session_seats
                   WHERE session_id = ?
                   ORDER BY seat_row, seat_col`
    rows, err := r.db.QueryContext(ctx, seatQ, sessionID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var seat model.Seat
        if err := rows.Scan(&seat.Ref.Row, &seat.Ref.Col, &seat.State); err != nil {
            return nil, err
        }
        snap.Seats = append(snap.Seats, seat)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    // Ticket tiers sellable for this session.
    const tierQ = `SELECT ticket_type_id FROM session_ticket_types WHERE session_id = ?`
    trows, err := r.db.QueryContext(ctx, tierQ, sessionID)
    if err != nil {
        return nil, err
    }
    defer trows.Close()
    for trows.Next() {
        var id uint64
        if err := trows.Scan(&id); err != nil {
            return nil, err
        }
        snap.TierIDs = append(snap.TierIDs, id)
    }
    if err := trows.Err(); err != nil {
        return nil, err
    }
    return &snap, nil
}
