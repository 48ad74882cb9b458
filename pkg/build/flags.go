// SPDX-License-Identifier: MIT
//
// Package build manages build metadata embedded into the binary at compile
// time via linker flags, for example:
//
//	go build -ldflags "-X github.com/vanwars/kate-audio-experiments-sarah/pkg/build.buildName=beatscope \
//	  -X github.com/vanwars/kate-audio-experiments-sarah/pkg/build.buildVersion=0.1.0"
package build

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables populated by -ldflags during compilation.
// Development builds that omit the flags keep the defaults below.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        "beatscope",
		Description: "Real-time audio frequency band analysis and beat detection",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize copies any build information injected via ldflags into the
// buildFlags struct. Unset flags keep their development defaults, so this
// never fails; call it once early in program startup.
func Initialize() {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
