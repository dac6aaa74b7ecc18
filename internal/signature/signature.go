// Package signature implements the HMAC checks that gate the payment
// pipeline: webhook deliveries are authenticated over the raw request body,
// and client-side payment confirmations are re-verified over the provider's
// order and payment ids before they are trusted.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignWebhook returns the hex HMAC-SHA256 digest of body under secret.
func SignWebhook(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook checks a webhook delivery against its signature header.
// The digest must be computed over the raw, unparsed body: re-serializing
// the JSON changes key order and whitespace and silently breaks
// verification. Fails closed on a missing secret, header or body.
func VerifyWebhook(body []byte, signatureHeader, secret string) bool {
	if secret == "" || signatureHeader == "" || len(body) == 0 {
		return false
	}
	expected := SignWebhook(body, secret)
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}

// SignPayment returns the digest the client-verification flow must present:
// HMAC-SHA256 over "orderID|paymentID".
func SignPayment(providerOrderID, providerPaymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(providerOrderID + "|" + providerPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayment re-derives the expected payment signature and compares it to
// the client-supplied one. A front-end "payment succeeded" assertion is never
// trusted at face value; this check is what stands between a spoofed client
// callback and a completed payment record.
func VerifyPayment(providerOrderID, providerPaymentID, clientSignature, secret string) bool {
	if secret == "" || clientSignature == "" || providerOrderID == "" || providerPaymentID == "" {
		return false
	}
	expected := SignPayment(providerOrderID, providerPaymentID, secret)
	return hmac.Equal([]byte(expected), []byte(clientSignature))
}
