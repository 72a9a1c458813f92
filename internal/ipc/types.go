package ipc

import "hopper/internal/api"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse carries the daemon state snapshot.
type StatusResponse struct {
	Status api.StatusSnapshot `json:"status"`
}

// LongRunRequest toggles long-running mode.
type LongRunRequest struct {
	Enabled bool `json:"enabled"`
}

// LongRunResponse reports the mode after the toggle.
type LongRunResponse struct {
	LongRunning bool `json:"long_running"`
}

// PathPreviewRequest builds an output path from raw name parts.
type PathPreviewRequest struct {
	Prefix     string `json:"prefix"`
	Name       string `json:"name"`
	Extension  string `json:"extension"`
	ForceASCII bool   `json:"force_ascii"`
}

// PathPreviewResponse returns the generated path and the sanitized name
// segment it embeds.
type PathPreviewResponse struct {
	Path      string `json:"path"`
	Sanitized string `json:"sanitized"`
}

// SanitizeRequest previews illegal-character replacement on a name.
type SanitizeRequest struct {
	Name       string `json:"name"`
	ForceASCII bool   `json:"force_ascii"`
}

// SanitizeResponse returns the sanitized name.
type SanitizeResponse struct {
	Sanitized string `json:"sanitized"`
}

// TitleListRequest lists catalog titles matching a query. An empty query
// lists everything up to the limit.
type TitleListRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// TitleListResponse contains catalog rows.
type TitleListResponse struct {
	Titles []api.TitleRow `json:"titles"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// PrefsGetRequest fetches the mutable runtime preferences.
type PrefsGetRequest struct{}

// PrefsSetRequest updates one preference by name.
type PrefsSetRequest struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// PrefsResponse carries the preference values after the operation.
type PrefsResponse struct {
	Prefs api.Preferences `json:"prefs"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// ShutdownRequest asks the daemon to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a pending shutdown.
type ShutdownResponse struct {
	Stopping bool `json:"stopping"`
}
