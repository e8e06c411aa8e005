package models

// ArtistImage is derived from a storage listing on every request.
// Width and Height are filled in by viewing clients, never server-side.
type ArtistImage struct {
	URL    string `json:"url"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}

type SourceFailure struct {
	Artist string `json:"artist"`
	Reason string `json:"reason"`
}

// ImageFeed separates a complete result from one with excluded artists.
type ImageFeed struct {
	Images   []ArtistImage   `json:"images"`
	Failures []SourceFailure `json:"failures,omitempty"`
	Partial  bool            `json:"partial"`
}
