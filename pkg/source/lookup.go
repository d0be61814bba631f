package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/teslashibe/chewtube/internal/log"
)

// Video is metadata about a YouTube video.
type Video struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Channel    string `json:"channel"`
	Thumbnail  string `json:"thumbnail,omitempty"`
	Embeddable bool   `json:"embeddable"`
	Live       bool   `json:"live"`
}

// LookupConfig configures the Data API client.
type LookupConfig struct {
	// APIKey authenticates requests. When empty, application default
	// credentials are used if present.
	APIKey string

	// Endpoint overrides the API base URL.
	Endpoint string

	// HTTPClient replaces the transport. Credentials are not applied to it.
	HTTPClient *http.Client

	// CacheTTL is how long successful lookups are reused. Zero disables caching.
	CacheTTL time.Duration
}

type cached struct {
	video   Video
	expires time.Time
}

// Lookup fetches video metadata from the YouTube Data API.
type Lookup struct {
	svc *youtube.Service
	ttl time.Duration

	mu    sync.Mutex
	cache map[string]cached
}

// NewLookup builds a Data API client. It returns ErrNoCredentials when no
// key is configured and no default credentials can be found.
func NewLookup(ctx context.Context, cfg LookupConfig) (*Lookup, error) {
	var opts []option.ClientOption

	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		creds, err := google.FindDefaultCredentials(ctx, youtube.YoutubeReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	log.Component("source").Info("youtube lookup enabled", "api_key", cfg.APIKey != "")
	return &Lookup{
		svc:   svc,
		ttl:   cfg.CacheTTL,
		cache: make(map[string]cached),
	}, nil
}

// Video returns metadata for id.
func (l *Lookup) Video(ctx context.Context, id string) (Video, error) {
	if len(id) != VideoIDLength {
		return Video{}, fmt.Errorf("%w: %q", ErrInvalidVideoID, id)
	}
	if v, ok := l.cached(id); ok {
		return v, nil
	}

	resp, err := l.svc.Videos.List([]string{"snippet", "status"}).
		Id(id).
		Context(ctx).
		Do()
	if err != nil {
		return Video{}, fmt.Errorf("youtube videos.list: %w", err)
	}
	if len(resp.Items) == 0 {
		return Video{}, fmt.Errorf("%w: %s", ErrVideoNotFound, id)
	}

	v := toVideo(resp.Items[0])
	l.store(v)
	return v, nil
}

// Resolve parses link and fetches its metadata.
func (l *Lookup) Resolve(ctx context.Context, link string) (Video, error) {
	id, err := ParseVideoID(link)
	if err != nil {
		return Video{}, err
	}
	return l.Video(ctx, id)
}

func toVideo(item *youtube.Video) Video {
	v := Video{ID: item.Id}
	if s := item.Snippet; s != nil {
		v.Title = s.Title
		v.Channel = s.ChannelTitle
		v.Live = s.LiveBroadcastContent == "live"
		if th := s.Thumbnails; th != nil {
			switch {
			case th.High != nil:
				v.Thumbnail = th.High.Url
			case th.Default != nil:
				v.Thumbnail = th.Default.Url
			}
		}
	}
	if st := item.Status; st != nil {
		v.Embeddable = st.Embeddable
	}
	return v
}

func (l *Lookup) cached(id string) (Video, bool) {
	if l.ttl <= 0 {
		return Video{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.cache[id]
	if !ok || time.Now().After(c.expires) {
		return Video{}, false
	}
	return c.video, true
}

func (l *Lookup) store(v Video) {
	if l.ttl <= 0 {
		return
	}
	l.mu.Lock()
	l.cache[v.ID] = cached{video: v, expires: time.Now().Add(l.ttl)}
	l.mu.Unlock()
}

// IsNoCredentials reports whether err means lookup is unavailable.
func IsNoCredentials(err error) bool {
	return errors.Is(err, ErrNoCredentials)
}
