package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// APIVersion is the version of the HdmiInput JSON-RPC interface. Its major
// number is the one accepted in versioned callsigns.
const APIVersion = "1.0.0"

var (
	// Version is the application version, set via ldflags during build.
	Version = "dev"
	// GitCommit is the git commit hash, set via ldflags during build.
	GitCommit = "unknown"
	// BuildDate is the build timestamp, set via ldflags during build.
	BuildDate = "unknown"
)

// Info contains version and build metadata.
type Info struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns version and build information.
func Get() Info {
	return Info{
		Version:    Version,
		APIVersion: APIVersion,
		GitCommit:  GitCommit,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns the application version string.
func String() string {
	return Version
}

// APIMajor returns the major number of APIVersion.
func APIMajor() uint64 {
	return semver.MustParse(APIVersion).Major()
}

// Parse returns the application version as semver. Development builds
// ("dev" or any non-semver string) yield an error.
func Parse() (*semver.Version, error) {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid built-in version %q: %w", Version, err)
	}
	return v, nil
}
