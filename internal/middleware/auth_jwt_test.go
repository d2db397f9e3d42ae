package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignAndVerifyJWT(t *testing.T) {
	secret := "test-secret"
	claims := TokenClaims{
		Sub:      "user-123",
		Tier:     "creator",
		Exp:      time.Now().Add(time.Hour).Unix(),
		Issuer:   "tester",
		Audience: "clients",
	}
	token, err := SignJWT(secret, claims)
	if err != nil {
		t.Fatalf("SignJWT() unexpected error: %v", err)
	}
	parsed, err := VerifyJWT(secret, token, nil)
	if err != nil {
		t.Fatalf("VerifyJWT() unexpected error: %v", err)
	}
	if *parsed != claims {
		t.Fatalf("VerifyJWT() returned %+v, want %+v", parsed, claims)
	}
}

func TestVerifyJWTInvalidSignature(t *testing.T) {
	token, err := SignJWT("secret-a", TokenClaims{Sub: "user-123"})
	if err != nil {
		t.Fatalf("SignJWT() error: %v", err)
	}
	if _, err := VerifyJWT("secret-b", token, nil); err != errBadSignature {
		t.Fatalf("VerifyJWT() error = %v, want %v", err, errBadSignature)
	}
}

func TestVerifyJWTExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	token, _ := SignJWT("s", TokenClaims{Sub: "u", Exp: now.Add(-time.Minute).Unix()})
	if _, err := VerifyJWT("s", token, func() time.Time { return now }); err != errTokenExpired {
		t.Fatalf("VerifyJWT() error = %v, want %v", err, errTokenExpired)
	}
}

func TestVerifyJWTRequiresSubject(t *testing.T) {
	token, _ := SignJWT("s", TokenClaims{})
	if _, err := VerifyJWT("s", token, nil); err != errMissingSubject {
		t.Fatalf("VerifyJWT() error = %v, want %v", err, errMissingSubject)
	}
	if _, err := VerifyJWT("s", "not-a-token", nil); err != errMalformedToken {
		t.Fatalf("VerifyJWT() error = %v, want %v", err, errMalformedToken)
	}
}

func TestAuthJWT(t *testing.T) {
	var seen string
	h := AuthJWT("s")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	token, _ := SignJWT("s", TokenClaims{Sub: "user-9", Exp: time.Now().Add(time.Hour).Unix()})
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer a.b.c", want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token, want: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusOK && seen != "user-9" {
				t.Fatalf("user id = %q, want user-9", seen)
			}
		})
	}
}
