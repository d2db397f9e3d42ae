// Package audio defines the song generation boundary.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
	"strings"
	"time"
)

type GenerateRequest struct {
	SongID     string
	Story      string
	Mode       string
	MusicStyle string
}

// Clip is one encoded audio rendition.
type Clip struct {
	Data        []byte
	ContentType string
	Extension   string
	Duration    time.Duration
}

// Result holds the short preview and the full length song.
type Result struct {
	Preview Clip
	Full    Clip
}

type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Result, error)
}

// Synthetic renders a deterministic tone sequence derived from the request.
// It stands in for the hosted model in development and tests.
type Synthetic struct {
	SampleRate      int
	PreviewDuration time.Duration
	FullDuration    time.Duration
	Latency         time.Duration
}

func NewSynthetic() *Synthetic {
	return &Synthetic{
		SampleRate:      8000,
		PreviewDuration: 3 * time.Second,
		FullDuration:    10 * time.Second,
	}
}

func (s *Synthetic) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
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

	base := baseFrequency(req)
	return &Result{
		Preview: s.clip(base, s.PreviewDuration),
		Full:    s.clip(base, s.FullDuration),
	}, nil
}

func (s *Synthetic) clip(freq float64, d time.Duration) Clip {
	return Clip{
		Data:        toneWAV(freq, d, s.SampleRate),
		ContentType: "audio/wav",
		Extension:   "wav",
		Duration:    d,
	}
}

func baseFrequency(req GenerateRequest) float64 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(req.Mode + "|" + req.MusicStyle + "|" + req.Story)))
	return 220 + float64(h.Sum32()%440)
}

// toneWAV encodes a mono 16-bit PCM sine wave.
func toneWAV(freq float64, d time.Duration, sampleRate int) []byte {
	samples := int(d.Seconds() * float64(sampleRate))
	dataLen := samples * 2

	var buf bytes.Buffer
	buf.Grow(44 + dataLen)
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	for i := 0; i < samples; i++ {
		v := math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
		binary.Write(&buf, binary.LittleEndian, int16(v*0.3*math.MaxInt16))
	}
	return buf.Bytes()
}

var _ Generator = (*Synthetic)(nil)
