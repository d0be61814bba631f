package source

// Preset is a video known to allow embedded playback.
type Preset struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	EmbedURL string `json:"embed_url"`
}

var presets = []Preset{
	{Name: "Big Buck Bunny", ID: "aqz-KE-bpKQ"},
	{Name: "Minions Clip", ID: "P9-FCC6I7u0"},
	{Name: "Nature 4K", ID: "L_jWHffIx5E"},
	{Name: "Lofi Girl (Live)", ID: "jfKfPfyJRdk"},
}

// DefaultVideoID is loaded when no source has been chosen.
const DefaultVideoID = "aqz-KE-bpKQ"

// Presets returns a copy of the bundled presets with embed URLs filled in.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	for i, p := range presets {
		p.EmbedURL = EmbedURL(p.ID)
		out[i] = p
	}
	return out
}

// FindPreset looks a preset up by id.
func FindPreset(id string) (Preset, bool) {
	for _, p := range Presets() {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}
