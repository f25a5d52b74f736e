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

// Package semver parses and orders the semantic versions published for an
// upstream image and recorded in chart manifests.
package semver

import (
	"fmt"
	"slices"
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"
	"github.com/kptdev/chartsync/internal/errors"
)

// Version is an immutable semantic version. The zero value is not a valid
// version and reports true from IsZero.
type Version struct {
	v *mmsemver.Version
}

// Parse parses s according to the semantic versioning 2.0.0 grammar:
// MAJOR.MINOR.PATCH with an optional -prerelease and +build suffix. A leading
// "v", missing components and leading zeros are rejected.
func Parse(s string) (Version, error) {
	const op errors.Op = "semver.Parse"
	v, err := mmsemver.StrictNewVersion(s)
	if err != nil {
		return Version{}, errors.E(op, errors.InvalidVersion, fmt.Errorf("%q: %w", s, err))
	}
	return Version{v: v}, nil
}

// MustParse is like Parse but panics if s is not a valid version.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsValid reports whether s parses as a semantic version.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// New constructs a version from its components. Empty prerelease and build
// strings are omitted.
func New(major, minor, patch uint64, prerelease, build string) (Version, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", major, minor, patch)
	if prerelease != "" {
		b.WriteString("-" + prerelease)
	}
	if build != "" {
		b.WriteString("+" + build)
	}
	return Parse(b.String())
}

func (v Version) IsZero() bool { return v.v == nil }

func (v Version) Major() uint64 {
	if v.v == nil {
		return 0
	}
	return v.v.Major()
}

func (v Version) Minor() uint64 {
	if v.v == nil {
		return 0
	}
	return v.v.Minor()
}

func (v Version) Patch() uint64 {
	if v.v == nil {
		return 0
	}
	return v.v.Patch()
}

func (v Version) Prerelease() string {
	if v.v == nil {
		return ""
	}
	return v.v.Prerelease()
}

// Build returns the build metadata, which never takes part in ordering.
func (v Version) Build() string {
	if v.v == nil {
		return ""
	}
	return v.v.Metadata()
}

// MajorMinor returns the "major.minor" key identifying the release line the
// version belongs to.
func (v Version) MajorMinor() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// String returns the canonical form of the version.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// MarshalText renders the version in JSON and YAML summaries.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Compare returns -1, 0 or 1 when a is lower than, equal to or greater than b.
// The zero Version sorts before every valid version.
func Compare(a, b Version) int {
	switch {
	case a.v == nil && b.v == nil:
		return 0
	case a.v == nil:
		return -1
	case b.v == nil:
		return 1
	}
	return a.v.Compare(b.v)
}

func (v Version) Compare(o Version) int { return Compare(v, o) }

func (v Version) Equal(o Version) bool { return Compare(v, o) == 0 }

func (v Version) LessThan(o Version) bool { return Compare(v, o) < 0 }

func (v Version) GreaterThan(o Version) bool { return Compare(v, o) > 0 }

// IsCompatible reports whether a satisfies the caret range ^b. For b with
// major >= 1 that is the same major and a >= b; for major 0 the minor
// version must match as well.
func IsCompatible(a, b Version) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	if a.Major() != b.Major() {
		return false
	}
	if b.Major() == 0 && a.Minor() != b.Minor() {
		return false
	}
	return Compare(a, b) >= 0
}

// Sort sorts versions in ascending order. Equal versions keep their
// relative order.
func Sort(versions []Version) {
	slices.SortStableFunc(versions, Compare)
}

// Bump classifies the distance between two versions.
type Bump string

const (
	BumpNone       Bump = "none"
	BumpMajor      Bump = "major"
	BumpMinor      Bump = "minor"
	BumpPatch      Bump = "patch"
	BumpPrerelease Bump = "prerelease"
)

// BumpKind returns the most significant component that differs between
// from and to. It does not look at direction.
func BumpKind(from, to Version) Bump {
	switch {
	case from.IsZero() || to.IsZero():
		return BumpNone
	case from.Major() != to.Major():
		return BumpMajor
	case from.Minor() != to.Minor():
		return BumpMinor
	case from.Patch() != to.Patch():
		return BumpPatch
	case from.Prerelease() != to.Prerelease():
		return BumpPrerelease
	}
	return BumpNone
}
