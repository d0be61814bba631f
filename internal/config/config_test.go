package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/chewtube/pkg/player"
	"github.com/teslashibe/chewtube/pkg/tuning"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.TickInterval.Std() != 100*time.Millisecond {
		t.Errorf("TickInterval = %v, want 100ms", cfg.TickInterval.Std())
	}
	if cfg.Tuning != tuning.Default() {
		t.Errorf("Tuning = %+v", cfg.Tuning)
	}
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", `
addr: ":9999"
backend: media
tick_interval: 50ms
tuning:
  sensitivity: 7
  decay_rate: 2.5
  fuel_per_bite: 40
vlc:
  url: http://localhost:8081
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.Backend != "media" || cfg.TickInterval.Std() != 50*time.Millisecond {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Tuning.Sensitivity != 7 || cfg.Tuning.DecayRate != 2.5 || cfg.Tuning.FuelPerBite != 40 {
		t.Errorf("unexpected tuning: %+v", cfg.Tuning)
	}
	if cfg.VLC.URL != "http://localhost:8081" {
		t.Errorf("VLC.URL = %q", cfg.VLC.URL)
	}
	// Unset keys keep their defaults
	if cfg.FrameBuffer != DefaultConfig().FrameBuffer || cfg.Fallback != "media" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","call_timeout":"1s","tuning":{"sensitivity":3,"decay_rate":1,"fuel_per_bite":20}}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.CallTimeout.Std() != time.Second || cfg.Tuning.Sensitivity != 3 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr = \":8081\"\nerror_display = \"5s\"\n\n[youtube]\napi_key = \"k\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.ErrorDisplay.Std() != 5*time.Second || cfg.YouTube.APIKey != "k" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
	p = writeTempFile(t, d, "bad.yaml", "tick_interval: soon\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CHEWTUBE_ADDR", ":1234")
	t.Setenv("VLC_URL", "http://vlc:8080")
	t.Setenv("VLC_PASSWORD", "secret")
	t.Setenv("YOUTUBE_API_KEY", "key")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Addr != ":1234" || cfg.VLC.URL != "http://vlc:8080" || cfg.VLC.Password != "secret" {
		t.Errorf("unexpected cfg: %+v", cfg)
	}
	if cfg.YouTube.APIKey != "key" || cfg.Log.Level != "debug" {
		t.Errorf("unexpected cfg: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "flash"
	cfg.TickInterval = 0
	cfg.Tuning.Sensitivity = 11

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"backend", "tick_interval", "tuning"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestSession(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickInterval = Duration(20 * time.Millisecond)
	sc := cfg.Session()
	if sc.TickInterval != 20*time.Millisecond || sc.FrameBuffer != cfg.FrameBuffer {
		t.Errorf("unexpected session config: %+v", sc)
	}
	if k, _ := player.ParseKind(cfg.Backend); k != player.KindAPI {
		t.Errorf("default backend = %s", cfg.Backend)
	}
}
