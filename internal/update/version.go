// Package update fetches published release metadata and decides whether the
// running build is outdated.
package update

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadVersion marks a version string outside the MAJOR.MINOR.PATCH form.
var ErrBadVersion = errors.New("malformed version string")

// commitHashLen is the number of revision characters that participate in
// equality checks. Release tags embed the short hash.
const commitHashLen = 7

// Version is a parsed release version with an optional short commit hash.
type Version struct {
	Major  int
	Minor  int
	Patch  int
	Commit string
}

// ParseVersion parses "1.2.3" or "v1.2.3", with an optional "-<commit>"
// suffix carrying the short revision hash.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if s == "" {
		return Version{}, ErrBadVersion
	}

	var v Version
	if base, commit, found := strings.Cut(s, "-"); found {
		s = base
		v.Commit = normalizeCommit(commit)
	}

	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("%q: %w", s, ErrBadVersion)
	}
	fields := []*int{&v.Major, &v.Minor, &v.Patch}
	for i, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 {
			return Version{}, fmt.Errorf("%q: %w", s, ErrBadVersion)
		}
		*fields[i] = value
	}
	return v, nil
}

func (v Version) String() string {
	base := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Commit != "" {
		return base + "-" + v.Commit
	}
	return base
}

// NewerThan reports whether v is a strictly newer release than other. When
// the numeric triples match, differing commit hashes also count as newer:
// the published build supersedes a local development build of the same
// version.
func (v Version) NewerThan(other Version) bool {
	switch {
	case v.Major != other.Major:
		return v.Major > other.Major
	case v.Minor != other.Minor:
		return v.Minor > other.Minor
	case v.Patch != other.Patch:
		return v.Patch > other.Patch
	}
	if v.Commit == "" || other.Commit == "" {
		return false
	}
	return v.Commit != other.Commit
}

// normalizeCommit truncates a revision hash to the comparison length and
// lowercases it. Hash comparisons are case-insensitive.
func normalizeCommit(commit string) string {
	commit = strings.ToLower(strings.TrimSpace(commit))
	if len(commit) > commitHashLen {
		commit = commit[:commitHashLen]
	}
	return commit
}
