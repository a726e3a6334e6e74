package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/cinetix/box-office/internal/model"
)

// TierRepo provides read-only lookups of ticket tiers.  Tier rows are
// owned by the catalog service and treated as immutable once an order
// references them.
type TierRepo struct {
    db *sql.DB
}

// NewTierRepo returns a new TierRepo bound to the given database.
func NewTierRepo(db *sql.DB) *TierRepo { return &TierRepo{db: db} }

// GetByIDs fetches the tiers for the given identifiers and returns them
// in the same order as the ids slice, including duplicates: a request for
// two tickets of the same tier yields that tier twice.  Identifiers that
// match no tier are simply absent from the result; the validator detects
// them through the session membership check.
func (r *TierRepo) GetByIDs(ctx context.Context, ids []uint64) ([]model.TicketTier, error) {
    if len(ids) == 0 {
        return []model.TicketTier{}, nil
    }
    // One IN query, then reassemble in request order.
    distinct := make([]uint64, 0, len(ids))
    seen := make(map[uint64]struct{}, len(ids))
    for _, id := range ids {
        if _, ok := seen[id]; !ok {
            seen[id] = struct{}{}
            distinct = append(distinct, id)
        }
    }
    placeholders := make([]string, 0, len(distinct))
    args := make([]interface{}, 0, len(distinct))
    for _, id := range distinct {
        placeholders = append(placeholders, "?")
        args = append(args, id)
    }
    query := `SELECT id, name, price FROM ticket_types WHERE id IN (` +
        strings.Join(placeholders, ",") + `)`
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    byID := make(map[uint64]model.TicketTier, len(distinct))
    for rows.Next() {
        var t model.TicketTier
        if err := rows.Scan(&t.ID, &t.Name, &t.Price); err != nil {
            return nil, err
        }
        byID[t.ID] = t
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    tiers := make([]model.TicketTier, 0, len(ids))
    for _, id := range ids {
        if t, ok := byID[id]; ok {
            tiers = append(tiers, t)
        }
    }
    return tiers, nil
}
