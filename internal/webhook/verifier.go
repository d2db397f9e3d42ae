package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"songdrop/internal/domain"
)

// Standard Webhooks headers.
const (
	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"
)

// DefaultTolerance is the accepted clock distance between the signed
// timestamp and now.
const DefaultTolerance = 5 * time.Minute

const secretPrefix = "whsec_"

// Verifier checks Standard Webhooks signatures: base64 HMAC-SHA256 over
// "id.timestamp.body", sent as space separated "v1,<sig>" entries.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier decodes secret. Secrets prefixed with "whsec_" are base64,
// anything else is used as raw bytes.
func NewVerifier(secret string, tolerance time.Duration) (*Verifier, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return nil, err
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{secret: key, tolerance: tolerance, now: time.Now}, nil
}

// DecodeSecret returns the signing key for a configured secret.
func DecodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("webhook: signing secret is required")
	}
	if strings.HasPrefix(secret, secretPrefix) {
		key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, secretPrefix))
		if err != nil {
			return nil, errors.New("webhook: signing secret is not valid base64")
		}
		return key, nil
	}
	return []byte(secret), nil
}

// WithClock overrides the time source.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	c := *v
	c.now = now
	return &c
}

// Verify authenticates a delivery and returns its message id.
func (v *Verifier) Verify(headers http.Header, body []byte) (string, error) {
	msgID := strings.TrimSpace(headers.Get(HeaderID))
	rawTS := strings.TrimSpace(headers.Get(HeaderTimestamp))
	signatures := strings.TrimSpace(headers.Get(HeaderSignature))
	if msgID == "" || rawTS == "" || signatures == "" {
		return "", domain.AuthenticationError("missing webhook signature headers")
	}

	ts, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return "", domain.AuthenticationError("invalid webhook timestamp")
	}
	delta := v.now().Sub(time.Unix(ts, 0))
	if delta < 0 {
		delta = -delta
	}
	if delta > v.tolerance {
		return "", domain.AuthenticationError("webhook timestamp outside tolerance")
	}

	expected := sign(v.secret, msgID, rawTS, body)
	for _, entry := range strings.Fields(signatures) {
		version, sig, ok := strings.Cut(entry, ",")
		if !ok || version != "v1" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if subtle.ConstantTimeCompare(decoded, expected) == 1 {
			return msgID, nil
		}
	}
	return "", domain.AuthenticationError("webhook signature verification failed")
}

// Sign returns the signature header value for a delivery. It is used by
// tests and the operator CLI to produce valid deliveries.
func Sign(secret []byte, msgID string, ts time.Time, body []byte) string {
	return "v1," + base64.StdEncoding.EncodeToString(sign(secret, msgID, strconv.FormatInt(ts.Unix(), 10), body))
}

func sign(secret []byte, msgID, ts string, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(msgID))
	mac.Write([]byte{'.'})
	mac.Write([]byte(ts))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return mac.Sum(nil)
}
