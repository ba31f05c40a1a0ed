// Package provider implements the payment-provider-specific pieces of the
// webhook contract, currently signature verification.
package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the hex HMAC-SHA256 signature of the raw body.
const SignatureHeader = "X-Webhook-Signature"

// HMACAuthenticator verifies webhook bodies against a shared secret.
type HMACAuthenticator struct {
	secret []byte
}

func NewHMACAuthenticator(secret string) *HMACAuthenticator {
	return &HMACAuthenticator{secret: []byte(secret)}
}

// Verify checks the signature over the untouched raw body. Comparison is
// constant-time.
func (a *HMACAuthenticator) Verify(rawBody []byte, signature string) (bool, string) {
	if len(a.secret) == 0 {
		return false, "webhook secret not configured"
	}
	if signature == "" {
		return false, "missing signature"
	}

	mac := hmac.New(sha256.New, a.secret)
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return false, "invalid signature"
	}
	return true, ""
}
