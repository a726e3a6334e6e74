package payment

import (
    "strconv"
    "strings"

    "github.com/cinetix/box-office/internal/model"
)

// Fixed protocol constants for the aggregated-checkout gateway flow.
const (
    paymentTypeAIO = "aio" // aggregated payment page
    choosePayment  = "ALL" // let the buyer pick the method on the page
    encryptType    = "1"   // 1 = SHA-256 CheckMacValue
    tradeDesc      = "box office tickets"
)

// tradeDateLayout is the MerchantTradeDate format the gateway expects,
// rendered from the order's UTC creation time.
const tradeDateLayout = "01/02/2006, 15:04:05"

// TradeRequest enumerates every field of the outbound payment request.
// Making the payload an explicit struct (rather than an ad-hoc map)
// guarantees no required field can be silently omitted and pins down the
// formatting rule of each one.
type TradeRequest struct {
    MerchantID        string // gateway merchant identifier
    MerchantTradeNo   string // order token
    MerchantTradeDate string // order creation time, tradeDateLayout, UTC
    PaymentType       string // always "aio"
    TotalAmount       string // order price, decimal string
    TradeDesc         string // fixed description
    ItemName          string // tier names joined with '#'
    ReturnURL         string // settlement callback URL
    ChoosePayment     string // always "ALL"
    EncryptType       string // always "1"
    ClientBackURL     string // browser return URL
    CheckMacValue     string // signature over all other fields
}

// NewTradeRequest builds the signed payment request for an order.  The
// same construction serves both the initial checkout and a re-issued
// payment: every field derives from the stored order, so a reissue
// reproduces the original payload exactly.
func NewTradeRequest(s Settings, order *model.Order) TradeRequest {
    req := TradeRequest{
        MerchantID:        s.MerchantID,
        MerchantTradeNo:   order.Token,
        MerchantTradeDate: order.CreatedAt.UTC().Format(tradeDateLayout),
        PaymentType:       paymentTypeAIO,
        TotalAmount:       strconv.FormatUint(uint64(order.Price), 10),
        TradeDesc:         tradeDesc,
        ItemName:          strings.Join(order.TierNames, "#"),
        ReturnURL:         s.ReturnURL,
        ChoosePayment:     choosePayment,
        EncryptType:       encryptType,
        ClientBackURL:     s.ClientBackURL,
    }
    req.CheckMacValue = CheckMacValue(req.fields(), s.HashKey, s.HashIV)
    return req
}

// fields returns the signable fields as the flat map the signature
// engine consumes. CheckMacValue itself is never part of the input.
func (r TradeRequest) fields() map[string]string {
    return map[string]string{
        "MerchantID":        r.MerchantID,
        "MerchantTradeNo":   r.MerchantTradeNo,
        "MerchantTradeDate": r.MerchantTradeDate,
        "PaymentType":       r.PaymentType,
        "TotalAmount":       r.TotalAmount,
        "TradeDesc":         r.TradeDesc,
        "ItemName":          r.ItemName,
        "ReturnURL":         r.ReturnURL,
        "ChoosePayment":     r.ChoosePayment,
        "EncryptType":       r.EncryptType,
        "ClientBackURL":     r.ClientBackURL,
    }
}

// Form returns the complete payload, signature included, keyed the way
// the gateway's checkout form expects it.
func (r TradeRequest) Form() map[string]string {
    m := r.fields()
    m["CheckMacValue"] = r.CheckMacValue
    return m
}

// MethodLabel translates the gateway's PaymentType code from a
// settlement callback into the internal payment-method label recorded on
// the order.
func MethodLabel(gatewayPaymentType string) string {
    switch gatewayPaymentType {
    case "Credit_CreditCard":
        return "credit-card"
    case "WebATM_TAISHIN", "WebATM_BOT", "WebATM_CHINATRUST":
        return "web-atm"
    case "ATM_TAISHIN", "ATM_BOT", "ATM_LAND":
        return "atm"
    case "CVS_CVS", "CVS_OK", "CVS_FAMILY", "CVS_HILIFE", "CVS_IBON":
        return "cvs"
    default:
        return "unknown"
    }
}
