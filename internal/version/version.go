package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the released engine version, overridden at build time:
//
//	go build -ldflags "-X github.com/hrygo/contextsense/internal/version.Version=0.3.0"
var Version = "0.1.0-dev"

// GitCommit is the git commit hash at build time.
var GitCommit = "unknown"

// BuildTime is the build timestamp in RFC3339 format.
var BuildTime = "unknown"

// Info is the build metadata reported by the HTTP surface.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
}

// Current returns the build metadata of this binary.
func Current() Info {
	info := Info{Version: Canonical(Version)}
	if known(GitCommit) {
		info.Commit = short(GitCommit)
	}
	if known(BuildTime) {
		info.BuildTime = BuildTime
	}
	return info
}

// Canonical returns v as a canonical semantic version without the leading "v",
// or v unchanged when it is not valid semver.
func Canonical(v string) string {
	c := semver.Canonical("v" + strings.TrimPrefix(v, "v"))
	if c == "" {
		return v
	}
	return strings.TrimPrefix(c, "v")
}

// IsVersionGreaterOrEqualThan returns true if version is greater than or equal to target.
func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare(fmt.Sprintf("v%s", version), fmt.Sprintf("v%s", target)) > -1
}

// String returns the version string with the short commit hash.
func String() string {
	if known(GitCommit) {
		return fmt.Sprintf("%s-%s", Version, short(GitCommit))
	}
	return Version
}

// StringFull returns the complete version information including build metadata.
func StringFull() string {
	parts := []string{fmt.Sprintf("Version=%s", Version)}
	if known(GitCommit) {
		parts = append(parts, fmt.Sprintf("Commit=%s", short(GitCommit)))
	}
	if known(BuildTime) {
		parts = append(parts, fmt.Sprintf("BuildTime=%s", BuildTime))
	}
	return strings.Join(parts, " ")
}

func known(s string) bool {
	return s != "" && s != "unknown"
}

func short(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
