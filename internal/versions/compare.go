package versions

import "github.com/Masterminds/semver/v3"

// IsNewerVersion reports whether candidate is strictly newer than current.
// Both values are compared as semantic versions when they parse as such;
// OTA builds with free-form version strings fall back to a plain string
// comparison, which at least orders date-stamped builds correctly.
func IsNewerVersion(candidate, current string) bool {
	candidateSemver, candidateErr := semver.NewVersion(candidate)
	currentSemver, currentErr := semver.NewVersion(current)

	if candidateErr == nil && currentErr == nil {
		return candidateSemver.GreaterThan(currentSemver)
	}

	return candidate > current
}
