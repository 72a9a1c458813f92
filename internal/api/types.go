// Package api holds the data transfer objects shared between the daemon's
// IPC surface and its clients. Enums travel as strings so clients never
// depend on internal numeric values.
package api

// StatusSnapshot is the daemon state reported over IPC.
type StatusSnapshot struct {
	Running     bool   `json:"running"`
	PID         int    `json:"pid"`
	SessionID   string `json:"session_id"`
	Uptime      string `json:"uptime"`
	LaunchPath  string `json:"launch_path"`
	Board       string `json:"board"`
	Revised     bool   `json:"revised"`
	DevUnit     bool   `json:"dev_unit"`
	Flavor      string `json:"flavor"`
	RunMode     string `json:"run_mode"`
	LongRunning bool   `json:"long_running"`
	VolumeMount string `json:"volume_mount"`
	VolumeFree  string `json:"volume_free"`
	SlotState   string `json:"slot_state"`
	KeyCount    int    `json:"key_count"`
	TitleCount  int64  `json:"title_count"`
	LockPath    string `json:"lock_path"`
	LogPath     string `json:"log_path"`
}

// TitleRow is one title-catalog entry rendered for clients.
type TitleRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Region     string `json:"region"`
	Version    string `json:"version"`
	UpdatedAt  string `json:"updated_at"`
	LastDumped string `json:"last_dumped,omitempty"`
}

// Preferences mirrors the mutable runtime preference values.
type Preferences struct {
	Overclock  bool `json:"overclock"`
	ASCIINames bool `json:"ascii_names"`
	Capture    bool `json:"capture"`
}
