package components

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/payment-webhook-ledger/internal/ingestion/service"
)

// ErrMissingSecret is returned when the verifier is built without a shared secret
var ErrMissingSecret = errors.New("webhook secret is required")

// SignatureVerifier authenticates webhook bodies with HMAC-SHA256 over a shared secret.
//
// Two modes are supported. Timestamp mode signs "<timestamp>.<body>" and rejects
// timestamps outside the tolerance window. Body-only mode signs the raw body and
// offers no replay protection; it is used only when the producer sends no
// timestamp and can be disabled with requireTimestamp.
type SignatureVerifier struct {
	secret           []byte
	tolerance        time.Duration
	requireTimestamp bool
	now              func() time.Time
}

func NewSignatureVerifier(secret string, toleranceSeconds int64, requireTimestamp bool, now func() time.Time) (*SignatureVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if now == nil {
		now = time.Now
	}
	return &SignatureVerifier{
		secret:           []byte(secret),
		tolerance:        time.Duration(toleranceSeconds) * time.Second,
		requireTimestamp: requireTimestamp,
		now:              now,
	}, nil
}

// Sign returns the hex signature of body in body-only mode
func (v *SignatureVerifier) Sign(body []byte) string {
	return v.mac(body)
}

// SignWithTimestamp returns the hex signature of "<timestamp>.<body>"
func (v *SignatureVerifier) SignWithTimestamp(body []byte, timestamp string) string {
	return v.mac(timestampedMessage(body, timestamp))
}

// Verify checks a body-only signature
func (v *SignatureVerifier) Verify(body []byte, signature string) bool {
	return v.matches(body, signature)
}

// VerifyWithTimestamp checks a timestamped signature and the replay window.
// The window is inclusive: a skew of exactly toleranceSeconds passes.
func (v *SignatureVerifier) VerifyWithTimestamp(body []byte, signature, timestamp string, toleranceSeconds int64) bool {
	claimed, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		return false
	}
	if !withinTolerance(v.now().Unix(), claimed, toleranceSeconds) {
		return false
	}
	return v.matches(timestampedMessage(body, strings.TrimSpace(timestamp)), signature)
}

// Authenticate picks the verification mode from the presence of a timestamp and
// reports the reason for any rejection.
func (v *SignatureVerifier) Authenticate(body []byte, signature, timestamp string) error {
	if strings.TrimSpace(signature) == "" {
		return &service.AuthenticationError{Reason: "missing signature"}
	}

	if strings.TrimSpace(timestamp) == "" {
		if v.requireTimestamp {
			return &service.AuthenticationError{Reason: "missing timestamp"}
		}
		if !v.Verify(body, signature) {
			return &service.AuthenticationError{Reason: "invalid signature"}
		}
		return nil
	}

	claimed, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		return &service.AuthenticationError{Reason: "malformed timestamp"}
	}
	toleranceSeconds := int64(v.tolerance / time.Second)
	if !withinTolerance(v.now().Unix(), claimed, toleranceSeconds) {
		return &service.AuthenticationError{Reason: "timestamp outside tolerance"}
	}
	if !v.VerifyWithTimestamp(body, signature, timestamp, toleranceSeconds) {
		return &service.AuthenticationError{Reason: "invalid signature"}
	}
	return nil
}

func (v *SignatureVerifier) mac(message []byte) string {
	h := hmac.New(sha256.New, v.secret)
	h.Write(message)
	return hex.EncodeToString(h.Sum(nil))
}

func (v *SignatureVerifier) matches(message []byte, signature string) bool {
	received, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, v.secret)
	h.Write(message)
	return hmac.Equal(h.Sum(nil), received)
}

func timestampedMessage(body []byte, timestamp string) []byte {
	message := make([]byte, 0, len(timestamp)+1+len(body))
	message = append(message, timestamp...)
	message = append(message, '.')
	return append(message, body...)
}

func withinTolerance(now, claimed, toleranceSeconds int64) bool {
	skew := now - claimed
	if skew < 0 {
		skew = -skew
	}
	return skew <= toleranceSeconds
}
