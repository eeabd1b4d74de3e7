package handlers

import (
	"net/http"
	"runtime"
)

// VersionInfo is the build identity injected from main at link time.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
}

// VersionResponse is the version endpoint payload.
type VersionResponse struct {
	App     VersionInfo `json:"app"`
	Runtime RuntimeInfo `json:"runtime"`
}

// RuntimeInfo describes the running process environment.
type RuntimeInfo struct {
	GoVersion     string `json:"go_version"`
	Platform      string `json:"platform"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutines int    `json:"num_goroutines"`
}

// VersionHandler serves build and runtime identity.
type VersionHandler struct {
	Info VersionInfo
}

// Get handles GET /version.
func (h *VersionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{
		App: h.Info,
		Runtime: RuntimeInfo{
			GoVersion:     runtime.Version(),
			Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			NumCPU:        runtime.NumCPU(),
			NumGoroutines: runtime.NumGoroutine(),
		},
	})
}
