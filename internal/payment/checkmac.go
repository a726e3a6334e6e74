// Package payment implements the ECPay gateway protocol surface: the
// CheckMacValue signature, the outbound trade request payload and the
// mapping of gateway payment-type codes to internal labels.  Everything
// here is deterministic and side-effect free; gateway credentials are
// injected through Settings, never read from ambient state.
package payment

import (
    "crypto/sha256"
    "encoding/hex"
    "sort"
    "strings"
)

// Settings carries the gateway credentials and URLs resolved from
// configuration at startup.
type Settings struct {
    MerchantID    string // gateway-assigned merchant identifier
    HashKey       string // CheckMacValue hash key
    HashIV        string // CheckMacValue hash IV
    ReturnURL     string // server-to-server settlement callback URL
    ClientBackURL string // browser return URL after payment
}

// CheckMacValue computes the gateway message signature over the given
// payload. The gateway verifies this bit for bit, so the transform must
// not drift:
//
//  1. sort keys by ordinal byte order,
//  2. wrap "HashKey=...&k=v&...&HashIV=...",
//  3. URI-component-encode, then substitute %20 + and the seven
//     unreserved triplets back to their literal characters,
//  4. lowercase,
//  5. SHA-256 over the UTF-8 bytes,
//  6. uppercase hex.
//
// The payload map is never mutated.
func CheckMacValue(payload map[string]string, hashKey, hashIV string) string {
    keys := make([]string, 0, len(payload))
    for k := range payload {
        keys = append(keys, k)
    }
    sort.Strings(keys)

    var b strings.Builder
    b.WriteString("HashKey=")
    b.WriteString(hashKey)
    for _, k := range keys {
        b.WriteByte('&')
        b.WriteString(k)
        b.WriteByte('=')
        b.WriteString(payload[k])
    }
    b.WriteString("&HashIV=")
    b.WriteString(hashIV)

    encoded := strings.ToLower(encodeURIComponent(b.String()))
    encoded = macReplacer.Replace(encoded)

    sum := sha256.Sum256([]byte(encoded))
    return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// macReplacer applies the gateway's fixed substitutions on the
// percent-encoded string. The input is lowercased first, which makes the
// triplet matching case-insensitive and leaves the replacements (all
// caseless characters) unaffected.
var macReplacer = strings.NewReplacer(
    "%20", "+",
    "%2d", "-",
    "%5f", "_",
    "%2e", ".",
    "%21", "!",
    "%2a", "*",
    "%28", "(",
    "%29", ")",
)

// encodeURIComponent percent-encodes s with the exact character class of
// the JavaScript function of the same name: letters, digits and
// - _ . ! ~ * ' ( ) pass through, every other byte becomes %XX.
// net/url.QueryEscape is close but diverges on ~ and ', which would shift
// the digest for payloads containing them.
func encodeURIComponent(s string) string {
    const hexDigits = "0123456789ABCDEF"
    var b strings.Builder
    b.Grow(len(s))
    for i := 0; i < len(s); i++ {
        c := s[i]
        if uriUnreserved(c) {
            b.WriteByte(c)
            continue
        }
        b.WriteByte('%')
        b.WriteByte(hexDigits[c>>4])
        b.WriteByte(hexDigits[c&0xf])
    }
    return b.String()
}

func uriUnreserved(c byte) bool {
    switch {
    case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
        return true
    }
    switch c {
    case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
        return true
    }
    return false
}

// VerifyCallback recomputes the CheckMacValue over a gateway callback
// body and compares it with the signature the gateway sent.  The
// CheckMacValue field itself is excluded from the computation.  Callbacks
// that fail verification must not be trusted: accepting them would let
// anyone settle an order by posting its token.
func VerifyCallback(params map[string]string, hashKey, hashIV string) bool {
    sent, ok := params["CheckMacValue"]
    if !ok || sent == "" {
        return false
    }
    rest := make(map[string]string, len(params)-1)
    for k, v := range params {
        if k == "CheckMacValue" {
            continue
        }
        rest[k] = v
    }
    return strings.EqualFold(CheckMacValue(rest, hashKey, hashIV), sent)
}
