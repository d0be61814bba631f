package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		want    string
		wantErr error
	}{
		{name: "watch", link: "https://www.youtube.com/watch?v=aqz-KE-bpKQ", want: "aqz-KE-bpKQ"},
		{name: "watch with params", link: "https://www.youtube.com/watch?v=P9-FCC6I7u0&t=42s", want: "P9-FCC6I7u0"},
		{name: "short", link: "https://youtu.be/L_jWHffIx5E", want: "L_jWHffIx5E"},
		{name: "short with query", link: "youtu.be/L_jWHffIx5E?si=abc", want: "L_jWHffIx5E"},
		{name: "embed", link: "https://www.youtube.com/embed/jfKfPfyJRdk", want: "jfKfPfyJRdk"},
		{name: "v path", link: "https://www.youtube.com/v/aqz-KE-bpKQ", want: "aqz-KE-bpKQ"},
		{name: "second query param", link: "https://www.youtube.com/watch?feature=share&v=aqz-KE-bpKQ", want: "aqz-KE-bpKQ"},
		{name: "padded", link: "  https://youtu.be/aqz-KE-bpKQ  ", want: "aqz-KE-bpKQ"},
		{name: "short id", link: "https://www.youtube.com/watch?v=abc", wantErr: ErrInvalidVideoID},
		{name: "not youtube", link: "https://example.com/video.mp4", wantErr: ErrInvalidURL},
		{name: "empty", link: "", wantErr: ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVideoID(tt.link)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmbedURL(t *testing.T) {
	got := EmbedURL("aqz-KE-bpKQ")
	assert.True(t, strings.HasPrefix(got, "https://www.youtube.com/embed/aqz-KE-bpKQ?"))
	for _, p := range []string{"enablejsapi=1", "playsinline=1", "controls=1", "rel=0", "modestbranding=1"} {
		assert.Contains(t, got, p)
	}
}

func TestResolve(t *testing.T) {
	r, err := Resolve("https://youtu.be/P9-FCC6I7u0")
	require.NoError(t, err)
	assert.Equal(t, "P9-FCC6I7u0", r.ID)
	assert.Equal(t, "https://www.youtube.com/watch?v=P9-FCC6I7u0", r.WatchURL)
	assert.Equal(t, EmbedURL("P9-FCC6I7u0"), r.EmbedURL)
}

func TestPresets(t *testing.T) {
	ps := Presets()
	require.Len(t, ps, 4)
	for _, p := range ps {
		assert.Len(t, p.ID, VideoIDLength, p.Name)
		assert.NotEmpty(t, p.EmbedURL)
	}

	ps[0].Name = "mutated"
	p, ok := FindPreset(DefaultVideoID)
	require.True(t, ok)
	assert.Equal(t, "Big Buck Bunny", p.Name)

	_, ok = FindPreset("nope")
	assert.False(t, ok)
}

const videosResponse = `{
  "items": [{
    "id": "aqz-KE-bpKQ",
    "snippet": {
      "title": "Big Buck Bunny 60fps 4K",
      "channelTitle": "Blender",
      "liveBroadcastContent": "none",
      "thumbnails": {"high": {"url": "https://i.ytimg.com/vi/aqz-KE-bpKQ/hqdefault.jpg"}}
    },
    "status": {"embeddable": true}
  }]
}`

func newTestLookup(t *testing.T, handler http.HandlerFunc, ttl time.Duration) *Lookup {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	l, err := NewLookup(context.Background(), LookupConfig{
		Endpoint:   srv.URL + "/",
		HTTPClient: srv.Client(),
		CacheTTL:   ttl,
	})
	require.NoError(t, err)
	return l
}

func TestLookup_Video(t *testing.T) {
	var calls atomic.Int32
	l := newTestLookup(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/videos"), r.URL.Path)
		assert.Equal(t, "aqz-KE-bpKQ", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(videosResponse))
	}, time.Minute)

	v, err := l.Video(context.Background(), "aqz-KE-bpKQ")
	require.NoError(t, err)
	assert.Equal(t, "Big Buck Bunny 60fps 4K", v.Title)
	assert.Equal(t, "Blender", v.Channel)
	assert.True(t, v.Embeddable)
	assert.False(t, v.Live)
	assert.Contains(t, v.Thumbnail, "hqdefault")

	_, err = l.Resolve(context.Background(), "https://youtu.be/aqz-KE-bpKQ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second lookup served from cache")
}

func TestLookup_NotFound(t *testing.T) {
	l := newTestLookup(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": []}`))
	}, 0)

	_, err := l.Video(context.Background(), "aqz-KE-bpKQ")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestLookup_RejectsBadID(t *testing.T) {
	l := newTestLookup(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, 0)

	_, err := l.Video(context.Background(), "short")
	assert.ErrorIs(t, err, ErrInvalidVideoID)
}

func TestLookup_APIError(t *testing.T) {
	l := newTestLookup(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"quota"}}`, http.StatusForbidden)
	}, 0)

	_, err := l.Video(context.Background(), "aqz-KE-bpKQ")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrVideoNotFound))
}
