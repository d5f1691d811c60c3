package version

import (
	"runtime"
	"time"
)

// Set with -ldflags "-X github.com/MrSnakeDoc/shelf/internal/version.Version=..."
var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version()               // go version
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

// Get returns the build information of this binary.
func Get() Info {
	return Info{Version: Version, Commit: Commit, BuildDate: BuildDate, GoVersion: GoVersion}
}

// UserAgent identifies shelf in outgoing requests.
func UserAgent() string {
	return "shelf/" + Version + " (" + runtime.GOOS + "; " + GoVersion + ")"
}
