package video

import (
	"bytes"
	"context"
	"testing"
)

func TestSynthetic_WrapsAudio(t *testing.T) {
	out, err := NewSynthetic().Render(context.Background(), RenderRequest{SongID: "s", Title: "t", Audio: []byte("RIFFdata")})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.ContentType != "video/mp4" || !bytes.Equal(out.Data[4:8], []byte("ftyp")) {
		t.Fatalf("unexpected output header: %q", out.Data[:8])
	}
	if !bytes.Contains(out.Data, []byte("RIFFdata")) {
		t.Fatal("expected audio payload in mdat box")
	}
}

func TestSynthetic_RequiresAudio(t *testing.T) {
	if _, err := NewSynthetic().Render(context.Background(), RenderRequest{SongID: "s"}); err == nil {
		t.Fatal("expected error for empty audio")
	}
}
