// Package version provides information about the build version of the extractor
package version

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information. The version, commit, and date variables
// are intended to be set at build time using -ldflags
func Info() BuildInfo {
	// -ldflags "-X 'dumpsift/internal/version.version=v0.1.0' -X 'dumpsift/internal/version.commit=abcd'"
	return BuildInfo{
		Service: "dumpsift-extract",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String renders the short form used by the CLI --version flag
func (b BuildInfo) String() string {
	return b.Version + " (" + b.Commit + ", " + b.Date + ")"
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
