// Package video defines the clip rendering boundary.
package video

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"time"
)

type RenderRequest struct {
	SongID string
	Title  string
	Audio  []byte
}

type Output struct {
	Data        []byte
	ContentType string
	Extension   string
}

type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (*Output, error)
}

// Synthetic wraps the audio track in a minimal MP4 box sequence. It stands in
// for the encoding service in development and tests.
type Synthetic struct {
	Latency time.Duration
}

func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

func (s *Synthetic) Render(ctx context.Context, req RenderRequest) (*Output, error) {
	if len(req.Audio) == 0 {
		return nil, errors.New("video: audio track is required")
	}
	if s.Latency > 0 {
		select {
		case <-time.After(s.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writeBox(&buf, "ftyp", append([]byte("isom"), 0, 0, 2, 0, 'i', 's', 'o', 'm', 'm', 'p', '4', '1'))
	writeBox(&buf, "udta", []byte(req.Title))
	writeBox(&buf, "mdat", req.Audio)
	return &Output{Data: buf.Bytes(), ContentType: "video/mp4", Extension: "mp4"}, nil
}

func writeBox(buf *bytes.Buffer, kind string, payload []byte) {
	binary.Write(buf, binary.BigEndian, uint32(8+len(payload)))
	buf.WriteString(kind)
	buf.Write(payload)
}

var _ Renderer = (*Synthetic)(nil)
