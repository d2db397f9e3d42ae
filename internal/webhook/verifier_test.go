package webhook

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"testing"
	"time"

	"songdrop/internal/domain"
)

var testSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("test-signing-key"))

func signedHeaders(t *testing.T, msgID string, ts time.Time, body []byte) http.Header {
	t.Helper()
	key, err := DecodeSecret(testSecret)
	if err != nil {
		t.Fatalf("decode secret: %v", err)
	}
	h := http.Header{}
	h.Set(HeaderID, msgID)
	h.Set(HeaderTimestamp, strconv.FormatInt(ts.Unix(), 10))
	h.Set(HeaderSignature, Sign(key, msgID, ts, body))
	return h
}

func newTestVerifier(t *testing.T, now time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier(testSecret, 0)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v.WithClock(func() time.Time { return now })
}

func TestVerify(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	body := []byte(`{"id":"evt_1","event_type":"transaction.completed"}`)

	cases := []struct {
		name    string
		headers func() http.Header
		wantErr bool
	}{
		{
			name:    "valid",
			headers: func() http.Header { return signedHeaders(t, "msg_1", now, body) },
		},
		{
			name: "rotated secret keeps an old signature first",
			headers: func() http.Header {
				h := signedHeaders(t, "msg_1", now, body)
				h.Set(HeaderSignature, "v1,AAAA "+h.Get(HeaderSignature))
				return h
			},
		},
		{
			name: "tampered body",
			headers: func() http.Header {
				return signedHeaders(t, "msg_1", now, []byte(`{"id":"evt_2"}`))
			},
			wantErr: true,
		},
		{
			name: "stale timestamp",
			headers: func() http.Header {
				return signedHeaders(t, "msg_1", now.Add(-6*time.Minute), body)
			},
			wantErr: true,
		},
		{
			name: "future timestamp",
			headers: func() http.Header {
				return signedHeaders(t, "msg_1", now.Add(6*time.Minute), body)
			},
			wantErr: true,
		},
		{
			name: "missing headers",
			headers: func() http.Header {
				return http.Header{}
			},
			wantErr: true,
		},
		{
			name: "unknown version",
			headers: func() http.Header {
				h := signedHeaders(t, "msg_1", now, body)
				sig := h.Get(HeaderSignature)
				h.Set(HeaderSignature, "v2"+sig[2:])
				return h
			},
			wantErr: true,
		},
	}

	v := newTestVerifier(t, now)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := v.Verify(tc.headers(), body)
			if tc.wantErr {
				if !domain.HasTextCode(err, domain.CodeAuthentication) {
					t.Fatalf("expected authentication error, got %v", err)
				}
				return
			}
			if err != nil || id != "msg_1" {
				t.Fatalf("expected msg_1, got %q %v", id, err)
			}
		})
	}
}

func TestDecodeSecret(t *testing.T) {
	raw, err := DecodeSecret("plain-secret")
	if err != nil || string(raw) != "plain-secret" {
		t.Fatalf("unexpected raw secret: %q %v", raw, err)
	}
	if _, err := DecodeSecret("whsec_***"); err == nil {
		t.Fatal("expected invalid base64 error")
	}
	if _, err := DecodeSecret(" "); err == nil {
		t.Fatal("expected missing secret error")
	}
}
