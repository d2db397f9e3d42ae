// Package catalog loads the manifest of pre-made media assets used by the
// matcher and normalizes its legacy entry shapes.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"songdrop/internal/domain"
)

// Format identifies a manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the manifest format from a file extension. JSON is the
// default.
func FormatFromPath(p string) Format {
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a manifest and returns the normalized items in manifest order.
func Parse(data []byte, format Format) ([]domain.CatalogItem, error) {
	var entries []map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode yaml manifest: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode json manifest: %w", err)
		}
	}

	items := make([]domain.CatalogItem, 0, len(entries))
	seen := make(map[string]int, len(entries))
	for i, entry := range entries {
		item, err := normalize(entry)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %d: %w", i, err)
		}
		if prev, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("manifest entry %d: duplicate id %q (first at %d)", i, item.ID, prev)
		}
		seen[item.ID] = i
		items = append(items, item)
	}
	return items, nil
}

func normalize(entry map[string]any) (domain.CatalogItem, error) {
	item := domain.CatalogItem{
		ID:         str(entry, "id"),
		Title:      str(entry, "title", "name"),
		Mode:       strings.ToLower(str(entry, "mode")),
		MusicStyle: strings.ToLower(str(entry, "musicStyle", "music_style", "style")),
		MP3URL:     str(entry, "mp3Url", "mp3_url", "mp3"),
		MP4URL:     str(entry, "mp4Url", "mp4_url", "mp4"),
	}

	filename := str(entry, "filename", "file")
	storageURL := str(entry, "storageUrl", "storage_url")
	if item.ID == "" {
		switch {
		case filename != "":
			item.ID = stem(filename)
		case storageURL != "":
			item.ID = stem(storageURL)
		}
	}
	if item.ID == "" {
		return item, fmt.Errorf("entry has no id, filename or storageUrl")
	}

	if storageURL != "" {
		switch strings.ToLower(path.Ext(stripQuery(storageURL))) {
		case ".mp4":
			if item.MP4URL == "" {
				item.MP4URL = storageURL
			}
		case ".mp3":
			if item.MP3URL == "" {
				item.MP3URL = storageURL
			}
		}
	}

	keywords := list(entry["keywords"])
	if len(keywords) == 0 {
		keywords = list(entry["tags"])
	}
	item.Keywords = keywords
	if item.Title == "" {
		item.Title = item.ID
	}
	return item, nil
}

func str(entry map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := entry[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case json.Number:
			return t.String()
		default:
			return strings.TrimSpace(fmt.Sprint(t))
		}
	}
	return ""
}

// list accepts a comma separated string or a list of strings.
func list(v any) []string {
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.Split(t, ",")
	case []any:
		for _, el := range t {
			if s, ok := el.(string); ok {
				raw = append(raw, s)
			}
		}
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stem(p string) string {
	base := path.Base(stripQuery(p))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}
