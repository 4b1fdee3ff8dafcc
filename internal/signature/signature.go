// Package signature verifies the X-Hub-Signature-256 header Meta attaches to
// webhook deliveries.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	HeaderName = "X-Hub-Signature-256"
	prefix     = "sha256="

	// PlaceholderSecret ships in example env files and disables verification.
	PlaceholderSecret = "your_app_secret"
)

// Verifier checks payload signatures against a fixed app secret.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Enabled reports whether Verify actually checks signatures.
func (v *Verifier) Enabled() bool {
	return enabled(v.secret)
}

func (v *Verifier) Verify(body []byte, header string) bool {
	return Verify(body, header, v.secret)
}

// Verify reports whether header carries the HMAC-SHA256 of body keyed by
// secret. An empty or placeholder secret accepts every payload.
func Verify(body []byte, header, secret string) bool {
	if !enabled(secret) {
		return true
	}
	if !strings.HasPrefix(header, prefix) {
		return false
	}

	got, err := hex.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return false
	}

	return hmac.Equal(got, compute(body, secret))
}

// Sign returns the header value Meta would send for body.
func Sign(body []byte, secret string) string {
	return prefix + hex.EncodeToString(compute(body, secret))
}

func compute(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

func enabled(secret string) bool {
	return secret != "" && secret != PlaceholderSecret
}
