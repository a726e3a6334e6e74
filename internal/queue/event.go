// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPaidEvent is published when a payment settles and the order's
// seats transition to SOLD.  It carries enough information for downstream
// consumers to log, notify, or feed analytics without querying the
// primary database.
type OrderPaidEvent struct {
    OrderToken string   `json:"order_token"`
    SessionID  uint64   `json:"session_id"`
    SeatLabels []string `json:"seats"`
    TierNames  []string `json:"tickets"`
    Amount     uint32   `json:"amount"`
    PayMethod  string   `json:"pay_method"`
    PaidAt     string   `json:"paid_at"`
}
