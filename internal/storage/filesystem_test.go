package storage

import (
	"context"
	"testing"
)

func TestFileStore_PutGetRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	key, url, err := store.Put(context.Background(), "songs/abc/full.wav", []byte("data"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != "songs/abc/full.wav" || url != "http://localhost:8080/static/songs/abc/full.wav" {
		t.Fatalf("unexpected key/url: %s %s", key, url)
	}
	back, ok := store.KeyFromURL(url)
	if !ok || back != key {
		t.Fatalf("expected key from url, got %q %v", back, ok)
	}
	data, err := store.Get(context.Background(), key)
	if err != nil || string(data) != "data" {
		t.Fatalf("get: %q %v", data, err)
	}
}

func TestSanitizeKey(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "/songs/a.wav", want: "songs/a.wav"},
		{in: "./songs//b.wav", want: "songs/b.wav"},
		{in: "..\\etc\\passwd", wantErr: true},
		{in: "../secret", wantErr: true},
		{in: "  ", wantErr: true},
	}
	for _, tc := range cases {
		got, err := sanitizeKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}
