package model

import "time"

// Order lifecycle states.  An order starts UNPAID and moves to
// TICKET_PENDING when the payment gateway confirms settlement.  PICKED_UP
// is driven by the box-office pickup flow outside this core.  There is no
// failed state: an unpaid order stays retryable until something external
// expires it.
const (
    OrderUnpaid        = "UNPAID"
    OrderTicketPending = "TICKET_PENDING"
    OrderPickedUp      = "PICKED_UP"
)

// PayMethodUnpaid is the sentinel payment-method label carried by orders
// that have not settled yet.
const PayMethodUnpaid = "unpaid"

// Order is a buyer's committed selection of seats and ticket tiers for a
// session.  The token is the only identifier exposed outside the service
// and doubles as the gateway's MerchantTradeNo.  Seat labels are captured
// at creation for display and settlement; the session seat map remains the
// single source of truth for sold/available state.
//
// Fields:
//  ID        – internal primary key identifier.
//  Token     – opaque 20-character lowercase alphanumeric order token.
//  SessionID – session the seats belong to.
//  Seats     – seat positions claimed at booking time, in request order.
//  TierNames – ticket tier names, in request order.
//  Price     – total in minor currency units, fixed at creation.
//  PayMethod – resolved payment method label, "unpaid" until settlement.
//  Status    – lifecycle state (UNPAID, TICKET_PENDING, PICKED_UP).
//  CreatedAt – creation timestamp in UTC.
type Order struct {
    ID        uint64    // orders.id
    Token     string    // orders.order_token
    SessionID uint64    // orders.session_id
    Seats     []SeatRef // order_seats rows ordered by position
    TierNames []string  // order_items rows ordered by position
    Price     uint32    // orders.price
    PayMethod string    // orders.pay_method
    Status    string    // orders.status
    CreatedAt time.Time // orders.created_at
}

// SeatLabels returns the display labels of the order's seats in booking
// order.
func (o *Order) SeatLabels() []string {
    labels := make([]string, 0, len(o.Seats))
    for _, s := range o.Seats {
        labels = append(labels, s.Label())
    }
    return labels
}
