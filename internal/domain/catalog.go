package domain

// CatalogItem is a pre-made media asset available for matching.
type CatalogItem struct {
	ID         string   `json:"id"`
	Title      string   `json:"title,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	MusicStyle string   `json:"music_style,omitempty"`
	MP3URL     string   `json:"mp3_url,omitempty"`
	MP4URL     string   `json:"mp4_url,omitempty"`
}

// MatchFilters narrows the catalog before scoring.
type MatchFilters struct {
	Mode       string `json:"mode,omitempty"`
	MusicStyle string `json:"music_style,omitempty"`
}
