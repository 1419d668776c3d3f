// Package version provides semantic version comparison and plugin protocol compatibility checks.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Compare performs a semantic comparison between two version strings.
// Returns 1 if a > b, -1 if a < b, and 0 if equal.
func Compare(a, b string) (int, error) {
	av, err := semver.NewVersion(a)
	if err != nil {
		return 0, fmt.Errorf("parse version %q: %w", a, err)
	}

	bv, err := semver.NewVersion(b)
	if err != nil {
		return 0, fmt.Errorf("parse version %q: %w", b, err)
	}

	return av.Compare(bv), nil
}

// Valid reports whether s is a well-formed semantic version.
// A leading "v" and a missing patch component are tolerated.
func Valid(s string) bool {
	_, err := semver.NewVersion(s)
	return err == nil
}

// Compatible reports whether a plugin built against protocol plugin can be loaded by a host
// implementing protocol host. Major and minor components must match exactly; patch is ignored.
func Compatible(host, plugin string) (bool, error) {
	hv, err := semver.NewVersion(host)
	if err != nil {
		return false, fmt.Errorf("parse host protocol %q: %w", host, err)
	}

	pv, err := semver.NewVersion(plugin)
	if err != nil {
		return false, fmt.Errorf("parse plugin protocol %q: %w", plugin, err)
	}

	return hv.Major() == pv.Major() && hv.Minor() == pv.Minor(), nil
}
