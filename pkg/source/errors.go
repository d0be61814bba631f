package source

import "errors"

var (
	// ErrInvalidURL is returned when a link is not a recognizable YouTube URL.
	ErrInvalidURL = errors.New("source: not a youtube url")

	// ErrInvalidVideoID is returned when the extracted id is not 11 characters.
	ErrInvalidVideoID = errors.New("source: invalid video id")

	// ErrNoCredentials is returned when neither an API key nor default credentials exist.
	ErrNoCredentials = errors.New("source: no youtube credentials")

	// ErrVideoNotFound is returned when the Data API has no such video.
	ErrVideoNotFound = errors.New("source: video not found")
)
