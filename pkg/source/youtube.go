// Package source resolves what the viewer watches: YouTube links, the
// bundled presets, and optional metadata from the YouTube Data API.
package source

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// VideoIDLength is the length of every YouTube video id.
const VideoIDLength = 11

// LocalVideoURL is the sample file played by the media backend.
const LocalVideoURL = "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4"

const embedBase = "https://www.youtube.com/embed/"

var videoIDPattern = regexp.MustCompile(`^.*(youtu.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// ParseVideoID extracts the 11 character video id from a YouTube link.
// Accepts watch, short, embed, v/ and user-upload forms.
func ParseVideoID(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	m := videoIDPattern.FindStringSubmatch(link)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, link)
	}
	if id := m[2]; len(id) == VideoIDLength {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVideoID, m[2])
}

// EmbedURL returns the iframe URL for id with the JS API enabled.
func EmbedURL(id string) string {
	q := url.Values{}
	q.Set("enablejsapi", "1")
	q.Set("playsinline", "1")
	q.Set("controls", "1")
	q.Set("rel", "0")
	q.Set("modestbranding", "1")
	return embedBase + url.PathEscape(id) + "?" + q.Encode()
}

// WatchURL returns the canonical watch link for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

// Resolved is a parsed link ready for the player surface.
type Resolved struct {
	ID       string `json:"id"`
	EmbedURL string `json:"embed_url"`
	WatchURL string `json:"watch_url"`
}

// Resolve parses link and builds its player URLs.
func Resolve(link string) (Resolved, error) {
	id, err := ParseVideoID(link)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{ID: id, EmbedURL: EmbedURL(id), WatchURL: WatchURL(id)}, nil
}
