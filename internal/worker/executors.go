package worker

import (
	"context"
	"fmt"
	"strings"

	"songdrop/internal/domain"
	"songdrop/internal/providers/audio"
	"songdrop/internal/providers/video"
)

type outcome struct {
	ref   string
	media domain.SongMedia
}

func (w *Worker) dispatch(ctx context.Context, job *domain.Job, payload domain.JobPayload) (outcome, error) {
	switch job.Type {
	case domain.JobTypeGenerate:
		return w.processGenerateJob(ctx, payload)
	case domain.JobTypeRender:
		return w.processRenderJob(ctx, payload)
	default:
		return outcome{}, fmt.Errorf("unsupported job type %q", job.Type)
	}
}

func (w *Worker) processGenerateJob(ctx context.Context, payload domain.JobPayload) (outcome, error) {
	if w.Generator == nil {
		return outcome{}, fmt.Errorf("audio generator not configured")
	}
	result, err := w.Generator.Generate(ctx, audio.GenerateRequest{
		SongID:     payload.SongID,
		Story:      payload.Story,
		Mode:       payload.Mode,
		MusicStyle: payload.MusicStyle,
	})
	if err != nil {
		return outcome{}, fmt.Errorf("audio generation: %w", err)
	}

	_, previewURL, err := w.Media.Put(ctx, storageKey(payload.SongID, "preview", result.Preview.ContentType, result.Preview.Extension), result.Preview.Data)
	if err != nil {
		return outcome{}, fmt.Errorf("persist preview: %w", err)
	}
	fullKey, fullURL, err := w.Media.Put(ctx, storageKey(payload.SongID, "full", result.Full.ContentType, result.Full.Extension), result.Full.Data)
	if err != nil {
		return outcome{}, fmt.Errorf("persist full song: %w", err)
	}
	return outcome{ref: fullKey, media: domain.SongMedia{PreviewURL: previewURL, FullURL: fullURL}}, nil
}

func (w *Worker) processRenderJob(ctx context.Context, payload domain.JobPayload) (outcome, error) {
	if w.Renderer == nil {
		return outcome{}, fmt.Errorf("video renderer not configured")
	}
	song, err := w.Store.Songs().GetByID(ctx, payload.SongID)
	if err != nil {
		return outcome{}, err
	}
	key, ok := w.Media.KeyFromURL(song.FullURL)
	if !ok {
		return outcome{}, fmt.Errorf("song %s has no stored audio", song.ID)
	}
	track, err := w.Media.Get(ctx, key)
	if err != nil {
		return outcome{}, err
	}

	title := []rune(song.Story)
	if len(title) > 80 {
		title = title[:80]
	}
	out, err := w.Renderer.Render(ctx, video.RenderRequest{SongID: song.ID, Title: string(title), Audio: track})
	if err != nil {
		return outcome{}, fmt.Errorf("video render: %w", err)
	}
	clipKey, clipURL, err := w.Media.Put(ctx, storageKey(song.ID, "clip", out.ContentType, out.Extension), out.Data)
	if err != nil {
		return outcome{}, fmt.Errorf("persist clip: %w", err)
	}
	return outcome{ref: clipKey, media: domain.SongMedia{VideoURL: clipURL}}, nil
}

func storageKey(songID, name, mime, ext string) string {
	if e := extensionForMIME(mime); e != "" {
		ext = e
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("songs/%s/%s.%s", songID, name, ext)
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/wav", "audio/x-wav":
		return "wav"
	case "video/mp4":
		return "mp4"
	default:
		return ""
	}
}
