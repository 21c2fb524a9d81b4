package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Level selects which version component is incremented.
type Level string

const (
	Major      Level = "major"
	Minor      Level = "minor"
	Patch      Level = "patch"
	PreMajor   Level = "premajor"
	PreMinor   Level = "preminor"
	PreRelease Level = "prerelease"
)

// Levels lists every level the planner understands, in display order.
var Levels = []Level{Major, Minor, Patch, PreMajor, PreMinor, PreRelease}

// ParseLevel validates a release level name.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: unknown release level %q", ErrInvalidVersionInput, s)
}

func (l Level) prerelease() bool {
	return l == PreMajor || l == PreMinor || l == PreRelease
}

// Transition is the planned move from the current version to the next one,
// with the git names derived from the result.
type Transition struct {
	Current           Version
	Level             Level
	PreID             string
	Next              Version
	MinorVersionLabel string
	ReleaseBranch     string
}

// CurrentTag is the tag of the version being released from.
func (t Transition) CurrentTag() string { return t.Current.Tag() }

// NextTag is the tag the release produces.
func (t Transition) NextTag() string { return t.Next.Tag() }

// Plan computes the next version for level. preID is only consulted for the
// prerelease levels. The result is always strictly greater than current.
func Plan(current string, level Level, preID string) (Transition, error) {
	cur, err := Parse(current)
	if err != nil {
		return Transition{}, err
	}
	if _, err := ParseLevel(string(level)); err != nil {
		return Transition{}, err
	}
	if !level.prerelease() {
		preID = ""
	}
	if preID != "" && !validIdentifier(preID) {
		return Transition{}, fmt.Errorf("%w: invalid prerelease identifier %q", ErrInvalidVersionInput, preID)
	}

	next := increment(cur, level, preID)
	if Compare(next, cur) <= 0 {
		return Transition{}, fmt.Errorf("%w: %s %s would move %s to %s", ErrInvalidVersionInput, level, preID, cur, next)
	}

	label := fmt.Sprintf("v%d.%d", next.Major, next.Minor)
	branch := "release-" + label
	if next.IsPrerelease() {
		branch += "-" + next.Pre[0]
	}
	return Transition{
		Current:           cur,
		Level:             level,
		PreID:             preID,
		Next:              next,
		MinorVersionLabel: label,
		ReleaseBranch:     branch,
	}, nil
}

func increment(v Version, level Level, preID string) Version {
	pre := v.IsPrerelease()
	switch level {
	case Major:
		if !pre || v.Minor != 0 || v.Patch != 0 {
			v.Major++
		}
		return Version{Major: v.Major}
	case Minor:
		if !pre || v.Patch != 0 {
			v.Minor++
		}
		return Version{Major: v.Major, Minor: v.Minor}
	case Patch:
		if !pre {
			v.Patch++
		}
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
	case PreMajor:
		return Version{Major: v.Major + 1, Pre: startPre(preID)}
	case PreMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1, Pre: startPre(preID)}
	case PreRelease:
		if !pre {
			return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1, Pre: startPre(preID)}
		}
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch, Pre: bumpPre(v.Pre, preID)}
	}
	return v
}

func startPre(preID string) []string {
	if preID == "" {
		return []string{"0"}
	}
	return []string{preID, "0"}
}

// bumpPre increments the trailing numeric identifier. A different preID
// restarts the sequence under that identifier.
func bumpPre(cur []string, preID string) []string {
	if preID != "" && cur[0] != preID {
		return startPre(preID)
	}
	out := append([]string(nil), cur...)
	for i := len(out) - 1; i >= 0; i-- {
		if n, err := strconv.Atoi(out[i]); err == nil {
			out[i] = strconv.Itoa(n + 1)
			return out
		}
	}
	return append(out, "0")
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return !(r == '-' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	}) < 0
}
