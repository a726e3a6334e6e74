package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/google/uuid"

    "github.com/cinetix/box-office/internal/model"
)

// errTokenExhausted signals that token generation kept colliding, which
// in practice means the orders table is corrupt or the RNG is broken.
var errTokenExhausted = errors.New("order token generation exhausted retries")

// OrderRepo owns order records end to end: creation, token lookups and
// lifecycle transitions.  No other component writes order state.  All
// timestamps are stored in UTC.
type OrderRepo struct {
    db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// tokenAttempts bounds the collision-retry loop in Create.  With 20
// characters drawn from a UUIDv4 a second round is already unheard of,
// but the loop must terminate if the tokens table is somehow saturated.
const tokenAttempts = 5

// newOrderToken derives an opaque order token from a UUIDv4: dashes
// stripped, truncated to 20 characters, lowercase.  The token doubles as
// the gateway's MerchantTradeNo, which caps its length.
func newOrderToken() string {
    raw := strings.ReplaceAll(uuid.NewString(), "-", "")
    return strings.ToLower(raw[:20])
}

// Create persists a new UNPAID order for the given buyer and returns the
// stored record.  The order token is collision-checked against existing
// orders and regenerated on a hit.  The order row, its seat and item
// lists and the buyer's history link are written in a single transaction;
// the history link uses set semantics so retried requests never produce
// duplicate links.
func (r *OrderRepo) Create(ctx context.Context, sessionID uint64, seats []model.SeatRef, tierNames []string, price uint32, buyer string) (*model.Order, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var token string
    for i := 0; ; i++ {
        token = newOrderToken()
        var taken bool
        err := tx.QueryRowContext(ctx,
            `SELECT EXISTS(SELECT 1 FROM orders WHERE order_token = ?)`, token,
        ).Scan(&taken)
        if err != nil {
            return nil, err
        }
        if !taken {
            break
        }
        if i+1 >= tokenAttempts {
            return nil, errTokenExhausted
        }
    }

    res, err := tx.ExecContext(ctx,
        `INSERT INTO orders (order_token, session_id, price, pay_method, status) VALUES (?, ?, ?, ?, ?)`,
        token, sessionID, price, model.PayMethodUnpaid, model.OrderUnpaid,
    )
    if err != nil {
        return nil, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }

    if len(seats) > 0 {
        query := `INSERT INTO order_seats (order_id, position, seat_row, seat_col, label) VALUES `
        args := make([]interface{}, 0, len(seats)*5)
        for i, s := range seats {
            if i > 0 {
                query += ","
            }
            query += "(?, ?, ?, ?, ?)"
            args = append(args, id, i, s.Row, s.Col, s.Label())
        }
        if _, err := tx.ExecContext(ctx, query, args...); err != nil {
            return nil, err
        }
    }
    if len(tierNames) > 0 {
        query := `INSERT INTO order_items (order_id, position, tier_name) VALUES `
        args := make([]interface{}, 0, len(tierNames)*3)
        for i, name := range tierNames {
            if i > 0 {
                query += ","
            }
            query += "(?, ?, ?)"
            args = append(args, id, i, name)
        }
        if _, err := tx.ExecContext(ctx, query, args...); err != nil {
            return nil, err
        }
    }

    // Link the order into the buyer's history. IGNORE gives set semantics.
    if _, err := tx.ExecContext(ctx,
        `INSERT IGNORE INTO order_history (email, order_id) VALUES (?, ?)`,
        buyer, id,
    ); err != nil {
        return nil, err
    }

    // Read back the row so the caller sees the DB-assigned timestamp.
    order := &model.Order{
        ID:        uint64(id),
        Token:     token,
        SessionID: sessionID,
        Seats:     seats,
        TierNames: tierNames,
        Price:     price,
        PayMethod: model.PayMethodUnpaid,
        Status:    model.OrderUnpaid,
    }
    if err := tx.QueryRowContext(ctx,
        `SELECT created_at FROM orders WHERE id = ?`, id,
    ).Scan(&order.CreatedAt); err != nil {
        return nil, err
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return order, nil
}

// FindByToken loads a full order by its external token, including the
// ordered seat and item lists.  It returns ErrOrderNotFound when no such
// order exists.
func (r *OrderRepo) FindByToken(ctx context.Context, token string) (*model.Order, error) {
    const q = `SELECT id, order_token, session_id, price, pay_method, status, created_at
               FROM orders WHERE order_token = ?`
    var o model.Order
    err := r.db.QueryRowContext(ctx, q, token).Scan(
        &o.ID, &o.Token, &o.SessionID, &o.Price, &o.PayMethod, &o.Status, &o.CreatedAt,
    )
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, ErrOrderNotFound
        }
        return nil, err
    }
    if err := r.loadLists(ctx, &o); err != nil {
        return nil, err
    }
    return &o, nil
}

// loadLists populates the ordered seat and tier-name lists of an order.
func (r *OrderRepo) loadLists(ctx context.Context, o *model.Order) error {
    const seatQ = `SELECT seat_row, seat_col FROM order_seats WHERE order_id = ? ORDER BY position`
    rows, err := r.db.QueryContext(ctx, seatQ, o.ID)
    if err != nil {
        return err
    }
    defer rows.Close()
    for rows.Next() {
        var s model.SeatRef
        if err := rows.Scan(&s.Row, &s.Col); err != nil {
            return err
        }
        o.Seats = append(o.Seats, s)
    }
    if err := rows.Err(); err != nil {
        return err
    }
    const itemQ = `SELECT tier_name FROM order_items WHERE order_id = ? ORDER BY position`
    irows, err := r.db.QueryContext(ctx, itemQ, o.ID)
    if err != nil {
        return err
    }
    defer irows.Close()
    for irows.Next() {
        var name string
        if err := irows.Scan(&name); err != nil {
            return err
        }
        o.TierNames = append(o.TierNames, name)
    }
    return irows.Err()
}

// MarkConfirmed transitions an order from UNPAID to TICKET_PENDING and
// records the resolved payment method.  The transition is a single
// conditional update so concurrent gateway retries cannot double-apply
// it.  When the order exists but is no longer UNPAID the call is a no-op
// and alreadyPaid is true; the stored payment method is left untouched.
// It returns ErrOrderNotFound for unknown tokens.
func (r *OrderRepo) MarkConfirmed(ctx context.Context, token, payMethod string) (alreadyPaid bool, err error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE orders SET status = ?, pay_method = ? WHERE order_token = ? AND status = ?`,
        model.OrderTicketPending, payMethod, token, model.OrderUnpaid,
    )
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    if n == 1 {
        return false, nil
    }
    // Zero rows: either the token is unknown or the order already left
    // UNPAID. Disambiguate with a read.
    var status string
    err = r.db.QueryRowContext(ctx,
        `SELECT status FROM orders WHERE order_token = ?`, token,
    ).Scan(&status)
    if err != nil {
        if err == sql.ErrNoRows {
            return false, ErrOrderNotFound
        }
        return false, err
    }
    return true, nil
}

// Reissue returns the order for token only while it is still UNPAID, so
// a fresh payment request can be built from the stored data.  It returns
// ErrOrderNotFound for unknown tokens and ErrAlreadyPaid once the order
// has settled.
func (r *OrderRepo) Reissue(ctx context.Context, token string) (*model.Order, error) {
    o, err := r.FindByToken(ctx, token)
    if err != nil {
        return nil, err
    }
    if o.Status != model.OrderUnpaid {
        return nil, ErrAlreadyPaid
    }
    return o, nil
}

// ListByBuyer returns the buyer's orders, newest first.  Seat and item
// lists are loaded per order; history sizes are small enough that the
// N+1 reads are not worth a wide join here.
func (r *OrderRepo) ListByBuyer(ctx context.Context, buyer string) ([]model.Order, error) {
    const q = `SELECT o.id, o.order_token, o.session_id, o.price, o.pay_method, o.status, o.created_at
               FROM orders o
               JOIN order_history h ON h.order_id = o.id
               WHERE h.email = ?
               ORDER BY o.created_at DESC, o.id DESC`
    rows, err := r.db.QueryContext(ctx, q, buyer)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    orders := make([]model.Order, 0)
    for rows.Next() {
        var o model.Order
        if err := rows.Scan(&o.ID, &o.Token, &o.SessionID, &o.Price, &o.PayMethod, &o.Status, &o.CreatedAt); err != nil {
            return nil, err
        }
        orders = append(orders, o)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    for i := range orders {
        if err := r.loadLists(ctx, &orders[i]); err != nil {
            return nil, err
        }
    }
    return orders, nil
}
