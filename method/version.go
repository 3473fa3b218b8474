// Package method defines methods (named, versioned scripted source with
// a parsed AST) and the Methodology registry that stores them. Methods
// are immutable once registered; registering new behavior under an
// existing name means registering a new version.
package method

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a semantic version triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses "MAJOR.MINOR.PATCH". Missing trailing components
// default to zero, so "1" and "1.0" are accepted as 1.0.0.
func ParseVersion(text string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(text), ".")
	if len(parts) == 0 || len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid version %q", text)
	}
	numbers := [3]int{}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q", text)
		}
		numbers[i] = n
	}
	return Version{Major: numbers[0], Minor: numbers[1], Patch: numbers[2]}, nil
}

// Compare orders versions: negative when v < other, zero when equal,
// positive when v > other.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return v.Major - other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor - other.Minor
	}
	return v.Patch - other.Patch
}

// String returns the dotted triple form (e.g. "1.0.0").
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
