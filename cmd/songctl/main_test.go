package main

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"songdrop/internal/webhook"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	manifest := `
- id: p1
  mode: petty
  keywords: cheated, ghosted
  storageUrl: https://cdn.example/p1.mp3
- id: h1
  mode: healing
  keywords: [moving on]
  storageUrl: https://cdn.example/h1.mp3
- id: x1
  storageUrl: https://cdn.example/x1.mp3
`
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestCatalogCheck(t *testing.T) {
	out, err := run(t, "", "catalog", "check", writeManifest(t))
	if err != nil {
		t.Fatalf("catalog check: %v", err)
	}
	for _, want := range []string{"3 items", "petty", "(none)", "1 items have no keywords"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCatalogMatch(t *testing.T) {
	out, err := run(t, "", "catalog", "match", writeManifest(t), "--mode", "petty", "--story", "he cheated")
	if err != nil {
		t.Fatalf("catalog match: %v", err)
	}
	if !strings.Contains(out, "match: p1") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestWebhookSign(t *testing.T) {
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("cli-key"))
	body := `{"id":"evt_1","event_type":"transaction.completed","data":{}}`
	out, err := run(t, body, "webhook", "sign", "-", "--secret", secret, "--id", "msg_cli")
	if err != nil {
		t.Fatalf("webhook sign: %v", err)
	}

	headers := http.Header{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			t.Fatalf("bad line %q", line)
		}
		headers.Set(name, value)
	}
	v, err := webhook.NewVerifier(secret, 0)
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	msgID, err := v.Verify(headers, []byte(body))
	if err != nil {
		t.Fatalf("signed headers did not verify: %v", err)
	}
	if msgID != "msg_cli" {
		t.Fatalf("msg id = %q", msgID)
	}
}

func TestCreditsTierRejectsUnknownTier(t *testing.T) {
	if _, err := run(t, "", "credits", "set-tier", "u1", "--tier", "platinum"); err == nil || !strings.Contains(err.Error(), "unsupported tier") {
		t.Fatalf("err = %v", err)
	}
}
