package webhook

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// SignDelivery computes the HMAC that accompanies one delivery of payload
// to an endpoint secured by secret; every retry attempt of that delivery
// carries the same delivery ID and signature. The delivery ID is folded into
// the signed bytes (alongside the JSON payload) so a replayed delivery can't
// be re-signed under a new ID and passed off as a fresh one.
func SignDelivery(payload []byte, deliveryID string, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	mac.Write([]byte(deliveryID))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifyDelivery reports whether signature is the HMAC SignDelivery would
// have produced for the same payload, delivery ID, and secret. Subscribers
// use this to authenticate an inbound konditional webhook call.
func VerifyDelivery(payload []byte, deliveryID string, signature string, secret string) bool {
	expected := SignDelivery(payload, deliveryID, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// NewEndpointSecret generates a random secret suitable for signing
// deliveries to a newly registered Endpoint.
func NewEndpointSecret() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate endpoint secret: %w", err)
	}
	return "whsec_" + base64.URLEncoding.EncodeToString(raw), nil
}
