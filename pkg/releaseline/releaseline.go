// Copyright 2026 The kpt Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package releaseline identifies the tracked release lines and maps them to
// git branch and tag names.
package releaseline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kptdev/chartsync/pkg/semver"
	modsemver "golang.org/x/mod/semver"
)

// DefaultMainBranch is the branch tracking the Main line unless configured
// otherwise.
const DefaultMainBranch = "main"

// Line is either the unconstrained Main line or a Maintenance line pinned to
// a major.minor.
type Line struct {
	main  bool
	major uint64
	minor uint64
}

// Main returns the unconstrained line that always tracks the newest version.
func Main() Line { return Line{main: true} }

// Maintenance returns the line tracking only versions of major.minor.
func Maintenance(major, minor uint64) Line {
	return Line{major: major, minor: minor}
}

// ForVersion returns the Maintenance line v belongs to.
func ForVersion(v semver.Version) Line {
	return Maintenance(v.Major(), v.Minor())
}

// ParseMajorMinor parses a "major.minor" key into a Maintenance line.
func ParseMajorMinor(mm string) (Line, error) {
	parts := strings.Split(mm, ".")
	if len(parts) != 2 {
		return Line{}, fmt.Errorf("%q is not a major.minor key", mm)
	}
	major, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Line{}, fmt.Errorf("%q is not a major.minor key: %w", mm, err)
	}
	minor, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Line{}, fmt.Errorf("%q is not a major.minor key: %w", mm, err)
	}
	return Maintenance(major, minor), nil
}

// FromBranch returns the Maintenance line for a branch named vMAJOR.MINOR.
// A leading remote name ("origin/v1.2") is stripped when remote is set.
// Any other branch name returns false.
func FromBranch(name, remote string) (Line, bool) {
	name = strings.TrimSpace(name)
	if remote != "" {
		name = strings.TrimPrefix(name, remote+"/")
	}
	if !modsemver.IsValid(name) || modsemver.MajorMinor(name) != name {
		return Line{}, false
	}
	l, err := ParseMajorMinor(strings.TrimPrefix(name, "v"))
	if err != nil {
		return Line{}, false
	}
	return l, true
}

func (l Line) IsMain() bool { return l.main }

// MajorMinor returns the major.minor key of a Maintenance line and an empty
// string for Main.
func (l Line) MajorMinor() string {
	if l.main {
		return ""
	}
	return fmt.Sprintf("%d.%d", l.major, l.minor)
}

// Branch returns the git branch carrying the line.
func (l Line) Branch(mainBranch string) string {
	if l.main {
		if mainBranch == "" {
			return DefaultMainBranch
		}
		return mainBranch
	}
	return "v" + l.MajorMinor()
}

// Tag returns the git tag name marking version v on this line: v{version}
// on Main and v{major.minor}/{version} on a Maintenance line.
func (l Line) Tag(v semver.Version) string {
	if l.main {
		return "v" + v.String()
	}
	return "v" + l.MajorMinor() + "/" + v.String()
}

// Contains reports whether v may be recorded on the line without crossing a
// major.minor boundary. Main contains every version.
func (l Line) Contains(v semver.Version) bool {
	if l.main {
		return true
	}
	return !v.IsZero() && v.MajorMinor() == l.MajorMinor()
}

// String returns "main" or the maintenance branch name.
func (l Line) String() string {
	if l.main {
		return "main"
	}
	return "v" + l.MajorMinor()
}

// MarshalText renders the line by name in JSON and YAML summaries.
func (l Line) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Set is a collection of line identifiers gathered from local and remote
// branches.
type Set map[string]bool

// NewSet collects the Maintenance lines among the given branch names.
func NewSet(remote string, branches ...string) Set {
	s := Set{}
	s.Add(remote, branches...)
	return s
}

// Add records the Maintenance lines among the given branch names.
func (s Set) Add(remote string, branches ...string) {
	for _, b := range branches {
		if l, ok := FromBranch(b, remote); ok {
			s[l.MajorMinor()] = true
		}
	}
}

// Has reports whether a Maintenance line for major.minor is known.
func (s Set) Has(majorMinor string) bool {
	return s[majorMinor]
}
