package payment

import (
    "testing"
    "time"

    "github.com/cinetix/box-office/internal/model"
)

func testSettings() Settings {
    return Settings{
        MerchantID:    "3002607",
        HashKey:       "5294y06JbISpM5x9",
        HashIV:        "v77hoKGq4kWxNNIS",
        ReturnURL:     "https://example.com/v1/payments/notify",
        ClientBackURL: "https://example.com/orders",
    }
}

func testOrder() *model.Order {
    return &model.Order{
        ID:        7,
        Token:     "f7a81c4de9b24f05a6d1",
        SessionID: 3,
        Seats:     []model.SeatRef{{Row: 8, Col: 7}, {Row: 8, Col: 8}},
        TierNames: []string{"Adult Ticket", "Student Ticket"},
        Price:     520,
        PayMethod: model.PayMethodUnpaid,
        Status:    model.OrderUnpaid,
        CreatedAt: time.Date(2026, 8, 31, 12, 30, 45, 0, time.UTC),
    }
}

func TestNewTradeRequestFields(t *testing.T) {
    req := NewTradeRequest(testSettings(), testOrder())

    if req.MerchantTradeNo != "f7a81c4de9b24f05a6d1" {
        t.Errorf("MerchantTradeNo = %q", req.MerchantTradeNo)
    }
    if req.MerchantTradeDate != "08/31/2026, 12:30:45" {
        t.Errorf("MerchantTradeDate = %q", req.MerchantTradeDate)
    }
    if req.TotalAmount != "520" {
        t.Errorf("TotalAmount = %q", req.TotalAmount)
    }
    if req.ItemName != "Adult Ticket#Student Ticket" {
        t.Errorf("ItemName = %q", req.ItemName)
    }
    if req.PaymentType != "aio" || req.ChoosePayment != "ALL" || req.EncryptType != "1" {
        t.Errorf("protocol constants drifted: %q %q %q", req.PaymentType, req.ChoosePayment, req.EncryptType)
    }

    // Full-payload vector pinned from the reference implementation.
    const want = "74B7C05820610DC7889C5DCC9CA88F8166954192814B55A88CDFEAF95FF915E3"
    if req.CheckMacValue != want {
        t.Errorf("CheckMacValue = %s, want %s", req.CheckMacValue, want)
    }
}

// Creation time is stored in UTC and the trade date must be rendered from
// it, not from whatever zone the process happens to run in.
func TestNewTradeRequestNormalizesZone(t *testing.T) {
    loc := time.FixedZone("UTC+8", 8*60*60)
    order := testOrder()
    order.CreatedAt = time.Date(2026, 8, 31, 20, 30, 45, 0, loc)
    req := NewTradeRequest(testSettings(), order)
    if req.MerchantTradeDate != "08/31/2026, 12:30:45" {
        t.Errorf("MerchantTradeDate = %q, want UTC rendering", req.MerchantTradeDate)
    }
}

// A reissued payment rebuilds the payload from stored data; for the same
// order the bytes must be identical, signature included.
func TestNewTradeRequestReproducible(t *testing.T) {
    first := NewTradeRequest(testSettings(), testOrder())
    second := NewTradeRequest(testSettings(), testOrder())
    if first != second {
        t.Fatalf("payloads differ:\n%+v\n%+v", first, second)
    }
}

func TestTradeRequestForm(t *testing.T) {
    req := NewTradeRequest(testSettings(), testOrder())
    form := req.Form()
    if len(form) != 12 {
        t.Fatalf("form has %d fields, want 12", len(form))
    }
    if form["CheckMacValue"] != req.CheckMacValue {
        t.Errorf("form CheckMacValue = %q", form["CheckMacValue"])
    }
    if form["MerchantID"] != "3002607" {
        t.Errorf("form MerchantID = %q", form["MerchantID"])
    }
}

func TestMethodLabel(t *testing.T) {
    cases := map[string]string{
        "Credit_CreditCard": "credit-card",
        "WebATM_TAISHIN":    "web-atm",
        "ATM_BOT":           "atm",
        "CVS_IBON":          "cvs",
        "Something_Else":    "unknown",
        "":                  "unknown",
    }
    for in, want := range cases {
        if got := MethodLabel(in); got != want {
            t.Errorf("MethodLabel(%q) = %q, want %q", in, got, want)
        }
    }
}
