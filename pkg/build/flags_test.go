// SPDX-License-Identifier: MIT
package build

import "testing"

func TestInitializeDevelopmentDefaults(t *testing.T) {
	// With no ldflags injected the development defaults must survive.
	Initialize()

	flags := GetBuildFlags()
	if flags.Name != "beatscope" {
		t.Errorf("Name = %q, want development default", flags.Name)
	}
	if flags.Version != "dev" {
		t.Errorf("Version = %q, want %q", flags.Version, "dev")
	}
	if flags.Description == "" {
		t.Error("Description should never be empty")
	}
}

func TestInitializeAppliesInjectedValues(t *testing.T) {
	origName, origVersion := buildName, buildVersion
	t.Cleanup(func() {
		buildName, buildVersion = origName, origVersion
		buildFlags.Name = "beatscope"
		buildFlags.Version = "dev"
	})

	buildName = "beatscope-ci"
	buildVersion = "1.2.3"
	Initialize()

	flags := GetBuildFlags()
	if flags.Name != "beatscope-ci" {
		t.Errorf("Name = %q, want %q", flags.Name, "beatscope-ci")
	}
	if flags.Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", flags.Version, "1.2.3")
	}
	// Commit was not injected and must keep its default.
	if flags.Commit != "unknown" {
		t.Errorf("Commit = %q, want %q", flags.Commit, "unknown")
	}
}
