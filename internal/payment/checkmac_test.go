package payment

import "testing"

// Known vector from the gateway integration tests.  Any deviation is a
// regression that the gateway will reject silently, so the comparison is
// byte for byte.
func TestCheckMacValueKnownVector(t *testing.T) {
    got := CheckMacValue(map[string]string{"A": "1", "b": "2"}, "key", "iv")
    const want = "242DF136B777ED9CCB8349533A58257A84EE9B2C02AC2DAD3B116F704D321162"
    if got != want {
        t.Fatalf("CheckMacValue = %s, want %s", got, want)
    }
}

func TestCheckMacValueDeterministic(t *testing.T) {
    payload := map[string]string{
        "MerchantTradeNo": "abc123",
        "TotalAmount":     "400",
        "ItemName":        "Adult Ticket#Adult Ticket",
    }
    first := CheckMacValue(payload, "5294y06JbISpM5x9", "v77hoKGq4kWxNNIS")
    for i := 0; i < 10; i++ {
        if got := CheckMacValue(payload, "5294y06JbISpM5x9", "v77hoKGq4kWxNNIS"); got != first {
            t.Fatalf("run %d: CheckMacValue = %s, want %s", i, got, first)
        }
    }
    if len(first) != 64 {
        t.Fatalf("signature length = %d, want 64", len(first))
    }
}

// The sort step must neutralize map insertion order.  Go map iteration is
// already randomized, so building the same payload in different ways and
// comparing outputs exercises this directly.
func TestCheckMacValueInsertionOrderIrrelevant(t *testing.T) {
    a := map[string]string{}
    a["Zebra"] = "1"
    a["Alpha"] = "2"
    a["Mid"] = "3"
    b := map[string]string{}
    b["Mid"] = "3"
    b["Alpha"] = "2"
    b["Zebra"] = "1"
    if got, want := CheckMacValue(a, "k", "v"), CheckMacValue(b, "k", "v"); got != want {
        t.Fatalf("insertion order changed signature: %s vs %s", got, want)
    }
}

func TestCheckMacValueDoesNotMutatePayload(t *testing.T) {
    payload := map[string]string{"A": "1", "b": "2"}
    _ = CheckMacValue(payload, "key", "iv")
    if len(payload) != 2 || payload["A"] != "1" || payload["b"] != "2" {
        t.Fatalf("payload mutated: %v", payload)
    }
}

// Tilde and apostrophe are the characters where net/url.QueryEscape
// disagrees with the gateway's encoding; pin them with a vector.
func TestCheckMacValueUnreservedCharacters(t *testing.T) {
    got := CheckMacValue(map[string]string{"Note": "it's ~tilde~ & spaces"}, "k", "v")
    const want = "E25AB63D9DB8233ED697819C449C22BDCD7CCC04D5B7279AB081F1D3C8BA4993"
    if got != want {
        t.Fatalf("CheckMacValue = %s, want %s", got, want)
    }
}

func TestEncodeURIComponent(t *testing.T) {
    cases := []struct {
        in   string
        want string
    }{
        {"abcXYZ019", "abcXYZ019"},
        {"-_.!~*'()", "-_.!~*'()"},
        {"a b", "a%20b"},
        {"k=v&x=y", "k%3Dv%26x%3Dy"},
        {"https://example.com/cb", "https%3A%2F%2Fexample.com%2Fcb"},
        {"Adult#Student", "Adult%23Student"},
    }
    for _, tc := range cases {
        if got := encodeURIComponent(tc.in); got != tc.want {
            t.Errorf("encodeURIComponent(%q) = %q, want %q", tc.in, got, tc.want)
        }
    }
}

func TestVerifyCallback(t *testing.T) {
    params := map[string]string{
        "MerchantTradeNo": "f7a81c4de9b24f05a6d1",
        "PaymentType":     "Credit_CreditCard",
        "RtnCode":         "1",
    }
    params["CheckMacValue"] = CheckMacValue(params, "key", "iv")

    if !VerifyCallback(params, "key", "iv") {
        t.Fatal("valid callback rejected")
    }
    // Tampering with any field must break verification.
    params["RtnCode"] = "0"
    if VerifyCallback(params, "key", "iv") {
        t.Fatal("tampered callback accepted")
    }
}

func TestVerifyCallbackMissingSignature(t *testing.T) {
    if VerifyCallback(map[string]string{"MerchantTradeNo": "x"}, "key", "iv") {
        t.Fatal("callback without CheckMacValue accepted")
    }
}
