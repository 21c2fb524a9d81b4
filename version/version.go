// Package version plans semantic version transitions and owns the project
// manifest that records the current version.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidVersionInput is returned when a version string or release level
// cannot be planned.
var ErrInvalidVersionInput = errors.New("invalid version input")

// Version is a parsed major.minor.patch[-prerelease] version. Build metadata
// is dropped on parse since it takes no part in ordering.
type Version struct {
	Major int
	Minor int
	Patch int
	Pre   []string
}

// Parse accepts a full semantic version with or without the leading "v".
// Short forms such as "1.2" are rejected.
func Parse(s string) (Version, error) {
	v := strings.TrimSpace(s)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return Version{}, fmt.Errorf("%w: %q is not a semantic version", ErrInvalidVersionInput, s)
	}
	full := strings.TrimSuffix(v, semver.Build(v))
	if semver.Canonical(v) != full {
		return Version{}, fmt.Errorf("%w: %q must be major.minor.patch", ErrInvalidVersionInput, s)
	}

	pre := semver.Prerelease(full)
	core := strings.SplitN(strings.TrimSuffix(full, pre)[1:], ".", 3)
	var out Version
	nums := []*int{&out.Major, &out.Minor, &out.Patch}
	for i, part := range core {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersionInput, s, err)
		}
		*nums[i] = n
	}
	if pre != "" {
		out.Pre = strings.Split(pre[1:], ".")
	}
	return out, nil
}

// MustParse is Parse for constants known to be valid.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the version without the "v" prefix.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if len(v.Pre) > 0 {
		s += "-" + strings.Join(v.Pre, ".")
	}
	return s
}

// Tag is the git tag name recorded for the version.
func (v Version) Tag() string {
	return "v" + v.String()
}

// IsPrerelease reports whether the version carries a prerelease component.
func (v Version) IsPrerelease() bool {
	return len(v.Pre) > 0
}

// Compare returns -1, 0 or +1 following semantic version precedence.
func Compare(a, b Version) int {
	return semver.Compare(a.Tag(), b.Tag())
}
