package manager

import (
	"strings"

	"golang.org/x/mod/semver"
)

// CompareVersions orders dictionary versions by semantic version precedence,
// so "1.10" sorts after "1.9" and "1.0.0-beta" before "1.0.0". Shorthand
// versions such as "2.0-rc1" are padded to three components first. Versions
// that are not semantic versions sort before those that are, and compare as
// plain strings among themselves.
func CompareVersions(a, b string) int {
	na, nb := normalizeVersion(a), normalizeVersion(b)
	if !semver.IsValid(na) && !semver.IsValid(nb) {
		return strings.Compare(a, b)
	}
	return semver.Compare(na, nb)
}

// normalizeVersion adds the "v" prefix the semver package requires and pads
// a one or two component core that carries a pre-release or build suffix.
func normalizeVersion(v string) string {
	norm := v
	if !strings.HasPrefix(norm, "v") {
		norm = "v" + norm
	}
	if semver.IsValid(norm) {
		return norm
	}

	i := strings.IndexAny(norm, "-+")
	if i < 0 {
		return norm
	}
	core, suffix := norm[:i], norm[i:]
	for n := strings.Count(core, "."); n < 2; n++ {
		core += ".0"
	}
	return core + suffix
}
