package handler

import (
    "context"
    "errors"
    "log"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/cinetix/box-office/internal/booking"
    "github.com/cinetix/box-office/internal/model"
    "github.com/cinetix/box-office/internal/payment"
    "github.com/cinetix/box-office/internal/queue"
    "github.com/cinetix/box-office/internal/repository"
)

// gatewayAck is the literal acknowledgement body the gateway requires
// from a settlement callback.  Anything else makes it retry.
const gatewayAck = "1|OK"

// BookingHandler orchestrates checkout and settlement over the snapshot
// reader, the selection validator, the order ledger, the seat allocator
// and the signature engine.  Methods assume JWT authentication ran where
// the route requires it; the gateway callback is authenticated by its
// CheckMacValue instead.  Seat state is deliberately not touched at
// checkout time: two buyers may both receive signed payment requests for
// the same seat, and the allocator's atomic settlement-time transition is
// what prevents the double sale.
type BookingHandler struct {
    SessionRepo *repository.SessionRepo // read-only session snapshots
    TierRepo    *repository.TierRepo    // read-only tier lookups
    OrderRepo   *repository.OrderRepo   // order ledger, sole writer of order state
    SeatRepo    *repository.SeatRepo    // seat allocator, sole writer of seat state
    Ecpay       payment.Settings        // gateway credentials and URLs

    // PublishPaid emits the order.paid event after settlement.  It is a
    // field so tests can stub the broker out; a nil value disables
    // publishing.  Failures are logged and ignored: the event stream is
    // best-effort and must never unwind a settled payment.
    PublishPaid func(ctx context.Context, ev queue.OrderPaidEvent) error
}

// NewBookingHandler constructs a BookingHandler with the provided
// dependencies.  All repositories must be non-nil.
func NewBookingHandler(sessionRepo *repository.SessionRepo, tierRepo *repository.TierRepo, orderRepo *repository.OrderRepo, seatRepo *repository.SeatRepo, ecpay payment.Settings) *BookingHandler {
    if sessionRepo == nil || tierRepo == nil || orderRepo == nil || seatRepo == nil {
        panic("nil repository passed to NewBookingHandler")
    }
    return &BookingHandler{
        SessionRepo: sessionRepo,
        TierRepo:    tierRepo,
        OrderRepo:   orderRepo,
        SeatRepo:    seatRepo,
        Ecpay:       ecpay,
    }
}

// getBuyer extracts the verified buyer identity injected by the JWT
// middleware.
func getBuyer(c echo.Context) (string, error) {
    if email, ok := c.Get("email").(string); ok && email != "" {
        return email, nil
    }
    return "", errors.New("no buyer identity in context")
}

// checkoutRequest is the body of POST /v1/sessions/:id/checkout.  The
// claimed price is what the client computed for its selection; the
// validator rejects the request when it disagrees.
type checkoutRequest struct {
    TicketTypeIDs []uint64        `json:"ticket_type_ids"`
    Seats         []model.SeatRef `json:"seats"`
    Price         uint32          `json:"price"`
}

// CreateAndPay handles POST /v1/sessions/:id/checkout.  It validates the
// buyer's selection against a live snapshot, persists an UNPAID order and
// returns the signed gateway payload for redirect.  Rejections are 400
// with the specific reason; no seat state changes here.
func (h *BookingHandler) CreateAndPay(c echo.Context) error {
    buyer, err := getBuyer(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || sessionID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    var body checkoutRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if len(body.TicketTypeIDs) == 0 || len(body.Seats) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_type_ids and seats are required"})
    }

    ctx := c.Request().Context()
    snap, err := h.SessionRepo.GetSnapshot(ctx, sessionID)
    if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    tiers, err := h.TierRepo.GetByIDs(ctx, body.TicketTypeIDs)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    sel := booking.Selection{TierIDs: body.TicketTypeIDs, Seats: body.Seats, Price: body.Price}
    if err := booking.ValidateSelection(snap, tiers, sel); err != nil {
        var verr *booking.ValidationError
        if errors.As(err, &verr) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Message, "code": verr.Code})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "validation failed"})
    }

    tierNames := make([]string, 0, len(tiers))
    for _, t := range tiers {
        tierNames = append(tierNames, t.Name)
    }
    order, err := h.OrderRepo.Create(ctx, sessionID, body.Seats, tierNames, body.Price, buyer)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
    }

    req := payment.NewTradeRequest(h.Ecpay, order)
    return c.JSON(http.StatusCreated, req.Form())
}

// ConfirmPayment handles POST /v1/payments/ecpay/notify, the gateway's
// server-to-server settlement callback.  The callback's own CheckMacValue
// is verified before anything else; a forged or corrupted callback must
// not settle an order.  On success the order's seats transition to SOLD
// atomically and the order advances to TICKET_PENDING; the gateway gets
// the literal "1|OK" it requires.  A seat conflict here is the losing
// side of a double sale: the buyer has paid, the seats are gone, and the
// response enumerates them for the refund process.
func (h *BookingHandler) ConfirmPayment(c echo.Context) error {
    if err := c.Request().ParseForm(); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid callback body"})
    }
    params := make(map[string]string, len(c.Request().PostForm))
    for k, vals := range c.Request().PostForm {
        if len(vals) > 0 {
            params[k] = vals[0]
        }
    }

    if !payment.VerifyCallback(params, h.Ecpay.HashKey, h.Ecpay.HashIV) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "signature verification failed", "code": "invalid_signature"})
    }

    token := params["MerchantTradeNo"]
    ctx := c.Request().Context()
    order, err := h.OrderRepo.FindByToken(ctx, token)
    if err != nil {
        if errors.Is(err, repository.ErrOrderNotFound) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown order", "code": "unknown_order"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    // Gateway retries re-deliver the same callback.  A settled order is
    // acknowledged as-is instead of tripping over its own sold seats.
    if order.Status != model.OrderUnpaid {
        return c.String(http.StatusOK, gatewayAck)
    }

    if err := h.SeatRepo.MarkSold(ctx, order.SessionID, order.Seats); err != nil {
        var conflict *repository.SeatConflictError
        if errors.As(err, &conflict) {
            labels := make([]string, 0, len(conflict.Seats))
            for _, s := range conflict.Seats {
                labels = append(labels, s.Label())
            }
            return c.JSON(http.StatusConflict, echo.Map{
                "error": conflict.Error(),
                "code":  "seat_conflict",
                "seats": labels,
            })
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update seats"})
    }

    payMethod := payment.MethodLabel(params["PaymentType"])
    if _, err := h.OrderRepo.MarkConfirmed(ctx, token, payMethod); err != nil {
        // Seats are SOLD but the status write failed; surface the
        // failure so the gateway retries, which will land in the
        // settled-order branch above once MarkConfirmed goes through.
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm order"})
    }

    if h.PublishPaid != nil {
        ev := queue.OrderPaidEvent{
            OrderToken: order.Token,
            SessionID:  order.SessionID,
            SeatLabels: order.SeatLabels(),
            TierNames:  order.TierNames,
            Amount:     order.Price,
            PayMethod:  payMethod,
            PaidAt:     time.Now().UTC().Format(time.RFC3339),
        }
        go func() {
            pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
            defer cancel()
            if err := h.PublishPaid(pubCtx, ev); err != nil {
                log.Printf("order.paid publish failed for %s: %v", ev.OrderToken, err)
            }
        }()
    }
    return c.String(http.StatusOK, gatewayAck)
}

// ReissuePayment handles POST /v1/orders/:token/pay.  It rebuilds the
// signed gateway payload from the stored order data, identical to the
// payload CreateAndPay produced, without creating a new order or touching
// seat state.  Settled orders cannot be re-paid.
func (h *BookingHandler) ReissuePayment(c echo.Context) error {
    if _, err := getBuyer(c); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    token := c.Param("token")
    order, err := h.OrderRepo.Reissue(c.Request().Context(), token)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrOrderNotFound):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown order", "code": "unknown_order"})
        case errors.Is(err, repository.ErrAlreadyPaid):
            return c.JSON(http.StatusConflict, echo.Map{"error": "order already paid", "code": "already_paid"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
        }
    }
    req := payment.NewTradeRequest(h.Ecpay, order)
    return c.JSON(http.StatusOK, req.Form())
}

// orderView is the JSON shape of one order in a buyer's history.
type orderView struct {
    Token     string   `json:"token"`
    SessionID uint64   `json:"session_id"`
    Seats     []string `json:"seats"`
    Tickets   []string `json:"tickets"`
    Price     uint32   `json:"price"`
    PayMethod string   `json:"pay_method"`
    Status    string   `json:"status"`
    CreatedAt string   `json:"created_at"`
}

// ListOrders handles GET /v1/orders.  It returns the authenticated
// buyer's order history, newest first.
func (h *BookingHandler) ListOrders(c echo.Context) error {
    buyer, err := getBuyer(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orders, err := h.OrderRepo.ListByBuyer(c.Request().Context(), buyer)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    views := make([]orderView, 0, len(orders))
    for i := range orders {
        o := &orders[i]
        views = append(views, orderView{
            Token:     o.Token,
            SessionID: o.SessionID,
            Seats:     o.SeatLabels(),
            Tickets:   o.TierNames,
            Price:     o.Price,
            PayMethod: o.PayMethod,
            Status:    o.Status,
            CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"orders": views})
}

// seatView is the JSON shape of one seat in the public seat map.
type seatView struct {
    Row   uint32 `json:"row"`
    Col   uint32 `json:"col"`
    State string `json:"state"`
}

// GetSessionSeats handles GET /v1/sessions/:id/seats.  It exposes the
// session's seat map so clients can render availability before checkout.
// The route sits behind the Redis response cache; slight staleness is
// acceptable here because availability is only authoritative at
// settlement time anyway.
func (h *BookingHandler) GetSessionSeats(c echo.Context) error {
    sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || sessionID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    snap, err := h.SessionRepo.GetSnapshot(c.Request().Context(), sessionID)
    if err != nil {
        if errors.Is(err, repository.ErrSessionNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    seats := make([]seatView, 0, len(snap.Seats))
    for _, s := range snap.Seats {
        seats = append(seats, seatView{Row: s.Ref.Row, Col: s.Ref.Col, State: s.State})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "session_id": snap.Session.ID,
        "title":      snap.Session.Title,
        "starts_at":  snap.Session.StartsAt.UTC().Format(time.RFC3339),
        "seats":      seats,
    })
}
