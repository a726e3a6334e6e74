package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/cinetix/box-office/internal/model"
)

// SeatRepo is the sole writer of per-seat state within a session's seat
// map.  Checkout never touches seat state; the AVAILABLE -> SOLD
// transition happens here, once, at settlement time.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// MarkSold atomically transitions every named seat of a session from
// AVAILABLE to SOLD.  The availability re-check runs inside the same
// transaction that performs the update, with the rows locked, because
// time has passed since the booking-time validation and another confirmed
// order may have sold the same seats in between.  If any seat is missing
// or no longer AVAILABLE the whole operation aborts with a
// *SeatConflictError naming the offenders and no seat changes state.
func (r *SeatRepo) MarkSold(ctx context.Context, sessionID uint64, seats []model.SeatRef) error {
    if len(seats) == 0 {
        return nil
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Lock the requested rows and read their current state.
    pairs := make([]string, 0, len(seats))
    args := make([]interface{}, 0, len(seats)*2+1)
    args = append(args, sessionID)
    for _, s := range seats {
        pairs = append(pairs, "(?, ?)")
        args = append(args, s.Row, s.Col)
    }
    query := `SELECT seat_row, seat_col, state
              FROM session_seats
              WHERE session_id = ? AND (seat_row, seat_col) IN (` +
        strings.Join(pairs, ",") + `)
              FOR UPDATE`
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return err
    }
    available := make(map[model.SeatRef]bool, len(seats))
    for rows.Next() {
        var ref model.SeatRef
        var state string
        if err := rows.Scan(&ref.Row, &ref.Col, &state); err != nil {
            rows.Close()
            return err
        }
        available[ref] = state == model.SeatAvailable
    }
    if err := rows.Close(); err != nil {
        return err
    }

    // Seats that are missing from the map or already sold are conflicts.
    var conflicts []model.SeatRef
    for _, s := range seats {
        if !available[s] {
            conflicts = append(conflicts, s)
        }
    }
    if len(conflicts) > 0 {
        return &SeatConflictError{Seats: conflicts}
    }

    update := `UPDATE session_seats SET state = ?
               WHERE session_id = ? AND state = ? AND (seat_row, seat_col) IN (` +
        strings.Join(pairs, ",") + `)`
    uargs := make([]interface{}, 0, len(seats)*2+3)
    uargs = append(uargs, model.SeatSold, sessionID, model.SeatAvailable)
    for _, s := range seats {
        uargs = append(uargs, s.Row, s.Col)
    }
    res, err := tx.ExecContext(ctx, update, uargs...)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n != int64(len(seats)) {
        // The locked re-check should make this unreachable; abort rather
        // than commit a partial transition.
        return &SeatConflictError{Seats: seats}
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}
