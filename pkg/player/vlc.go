package player

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/teslashibe/chewtube/internal/httpc"
)

// VLC drives a VLC instance through its HTTP interface (--extraintf http).
type VLC struct {
	baseURL  string
	password string
	client   *http.Client
}

// vlcStatus is the subset of /requests/status.json we read.
type vlcStatus struct {
	State string `json:"state"`
}

// NewVLC creates a VLC API client. client may be nil to use the shared client.
func NewVLC(baseURL, password string, client *http.Client) *VLC {
	if client == nil {
		client = httpc.Client
	}
	return &VLC{
		baseURL:  strings.TrimRight(baseURL, "/"),
		password: password,
		client:   client,
	}
}

// PlayVideo implements API. pl_forceresume never toggles into pause.
func (v *VLC) PlayVideo(ctx context.Context) error {
	return v.command(ctx, "pl_forceresume", nil)
}

// PauseVideo implements API.
func (v *VLC) PauseVideo(ctx context.Context) error {
	return v.command(ctx, "pl_forcepause", nil)
}

// PlayerState implements API.
func (v *VLC) PlayerState(ctx context.Context) (PlayerState, error) {
	var st vlcStatus
	if err := v.command(ctx, "", &st); err != nil {
		return PlayerUnstarted, err
	}
	switch st.State {
	case "playing":
		return PlayerPlaying, nil
	case "paused":
		return PlayerPaused, nil
	case "stopped":
		return PlayerEnded, nil
	default:
		return PlayerUnstarted, nil
	}
}

func (v *VLC) command(ctx context.Context, cmd string, out any) error {
	u := v.baseURL + "/requests/status.json"
	if cmd != "" {
		u += "?command=" + url.QueryEscape(cmd)
	}
	return httpc.GetJSON(ctx, v.client, u, v.password, out)
}
