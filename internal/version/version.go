// Package version holds the build metadata baked into the codepin binary.
package version

// Overridable at build time:
// go build -ldflags "-X codepin/internal/version.Version=1.0.0 -X codepin/internal/version.Commit=abc123"
var (
	// Version is the semantic version of this build
	Version = "0.3.0"

	// Commit is the git commit the binary was built from
	Commit = "unknown"

	// BuildDate is the build timestamp
	BuildDate = "unknown"
)

// Info returns the version, with an abbreviated commit when one was baked in
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line version report printed by the version command
func Full() string {
	return "codepin version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
