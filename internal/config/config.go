// Package config holds chewtube's runtime configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/teslashibe/chewtube/pkg/player"
	"github.com/teslashibe/chewtube/pkg/session"
	"github.com/teslashibe/chewtube/pkg/tuning"
)

// Defaults.
const (
	DefaultAddr         = ":8080"
	DefaultStaticDir    = "./web"
	DefaultErrorDisplay = 3 * time.Second
)

// Config holds runtime parameters for the server.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	StaticDir string `json:"static_dir" yaml:"static_dir" toml:"static_dir"`

	// Backend is the initial playback backend (embed, api, media).
	Backend string `json:"backend" yaml:"backend" toml:"backend"`
	// Fallback is the backend installed when the source blocks embedded playback.
	Fallback string `json:"fallback" yaml:"fallback" toml:"fallback"`
	// VideoID is the YouTube video loaded at startup.
	VideoID string `json:"video_id" yaml:"video_id" toml:"video_id"`

	TickInterval Duration `json:"tick_interval" yaml:"tick_interval" toml:"tick_interval"`
	FrameBuffer  int      `json:"frame_buffer" yaml:"frame_buffer" toml:"frame_buffer"`
	CallTimeout  Duration `json:"call_timeout" yaml:"call_timeout" toml:"call_timeout"`
	// ErrorDisplay is how long a blocked-video notice stays visible.
	ErrorDisplay Duration `json:"error_display" yaml:"error_display" toml:"error_display"`

	Tuning  tuning.Params `json:"tuning" yaml:"tuning" toml:"tuning"`
	VLC     VLCConfig     `json:"vlc" yaml:"vlc" toml:"vlc"`
	YouTube YouTubeConfig `json:"youtube" yaml:"youtube" toml:"youtube"`
	Log     LogConfig     `json:"log" yaml:"log" toml:"log"`
}

// VLCConfig points the api backend at a VLC HTTP interface instead of the
// browser player surface. Empty URL disables it.
type VLCConfig struct {
	URL      string `json:"url" yaml:"url" toml:"url"`
	Password string `json:"password" yaml:"password" toml:"password"`
}

// YouTubeConfig configures metadata lookups.
type YouTubeConfig struct {
	APIKey   string   `json:"api_key" yaml:"api_key" toml:"api_key"`
	CacheTTL Duration `json:"cache_ttl" yaml:"cache_ttl" toml:"cache_ttl"`
}

// LogConfig configures internal/log.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	sc := session.DefaultConfig()
	return Config{
		Addr:         DefaultAddr,
		StaticDir:    DefaultStaticDir,
		Backend:      string(player.KindAPI),
		Fallback:     string(player.KindMedia),
		VideoID:      "aqz-KE-bpKQ",
		TickInterval: Duration(sc.TickInterval),
		FrameBuffer:  sc.FrameBuffer,
		CallTimeout:  Duration(sc.CallTimeout),
		ErrorDisplay: Duration(DefaultErrorDisplay),
		Tuning:       tuning.Default(),
		YouTube:      YouTubeConfig{CacheTTL: Duration(10 * time.Minute)},
		Log:          LogConfig{Level: "info", Format: "text"},
	}
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	setString(&c.Addr, "CHEWTUBE_ADDR")
	setString(&c.Backend, "CHEWTUBE_BACKEND")
	setString(&c.StaticDir, "CHEWTUBE_STATIC_DIR")
	setString(&c.VLC.URL, "VLC_URL")
	setString(&c.VLC.Password, "VLC_PASSWORD")
	setString(&c.YouTube.APIKey, "YOUTUBE_API_KEY")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if _, err := player.ParseKind(c.Backend); err != nil {
		errs = append(errs, fmt.Errorf("backend: %w", err))
	}
	if _, err := player.ParseKind(c.Fallback); err != nil {
		errs = append(errs, fmt.Errorf("fallback: %w", err))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("tick_interval must be positive"))
	}
	if c.FrameBuffer <= 0 {
		errs = append(errs, errors.New("frame_buffer must be positive"))
	}
	if c.CallTimeout <= 0 {
		errs = append(errs, errors.New("call_timeout must be positive"))
	}
	if err := c.Tuning.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tuning: %w", err))
	}
	return errors.Join(errs...)
}

// Session returns the session timing derived from c.
func (c Config) Session() session.Config {
	return session.Config{
		TickInterval:     c.TickInterval.Std(),
		FrameBuffer:      c.FrameBuffer,
		CallTimeout:      c.CallTimeout.Std(),
		ErrorLogInterval: session.DefaultConfig().ErrorLogInterval,
	}
}
