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

package semver

import (
	"testing"

	"github.com/kptdev/chartsync/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := map[string]struct {
		input   string
		wantErr bool
		major   uint64
		minor   uint64
		patch   uint64
		pre     string
		build   string
	}{
		"release":           {input: "1.2.3", major: 1, minor: 2, patch: 3},
		"prerelease":        {input: "0.18.0-rc.1", major: 0, minor: 18, patch: 0, pre: "rc.1"},
		"build metadata":    {input: "2.0.0+build.7", major: 2, build: "build.7"},
		"both suffixes":     {input: "1.0.0-beta+exp.sha.5114f85", major: 1, pre: "beta", build: "exp.sha.5114f85"},
		"two part":          {input: "1.2", wantErr: true},
		"v prefix":          {input: "v1.2.3", wantErr: true},
		"word":              {input: "latest", wantErr: true},
		"non numeric minor": {input: "1.a.2", wantErr: true},
		"leading zero":      {input: "01.2.3", wantErr: true},
		"empty":             {input: "", wantErr: true},
		"four part":         {input: "1.2.3.4", wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			v, err := Parse(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.InvalidVersion))
				assert.False(t, IsValid(tc.input))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.major, v.Major())
			assert.Equal(t, tc.minor, v.Minor())
			assert.Equal(t, tc.patch, v.Patch())
			assert.Equal(t, tc.pre, v.Prerelease())
			assert.Equal(t, tc.build, v.Build())
		})
	}
}

func TestCompare(t *testing.T) {
	testCases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "2.0.0", -1},
		{"1.10.0", "1.9.0", 1},
		{"1.0.10", "1.0.9", 1},
		{"1.0.0-alpha", "1.0.0", -1},
		{"1.0.0-alpha", "1.0.0-alpha.1", -1},
		{"1.0.0-alpha.beta", "1.0.0-beta", -1},
		{"1.0.0-beta.2", "1.0.0-beta.11", -1},
		{"1.0.0-rc.1", "1.0.0", -1},
		{"1.0.0+a", "1.0.0+b", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.a+"_"+tc.b, func(t *testing.T) {
			a, b := MustParse(tc.a), MustParse(tc.b)
			assert.Equal(t, tc.want, Compare(a, b))
			assert.Equal(t, -tc.want, Compare(b, a))
		})
	}
}

func TestCompare_totalOrder(t *testing.T) {
	inputs := []string{"0.1.0", "0.1.0-rc.1", "1.0.0", "1.0.0-alpha", "1.0.1", "1.1.0", "2.0.0+meta", "0.0.9"}
	versions := make([]Version, 0, len(inputs))
	for _, s := range inputs {
		versions = append(versions, MustParse(s))
	}

	for _, a := range versions {
		for _, b := range versions {
			assert.Equal(t, Compare(a, b), -Compare(b, a), "antisymmetry for %s %s", a, b)
			for _, c := range versions {
				if Compare(a, b) <= 0 && Compare(b, c) <= 0 {
					assert.LessOrEqual(t, Compare(a, c), 0, "transitivity for %s %s %s", a, b, c)
				}
			}
		}
	}

	Sort(versions)
	var got []string
	for _, v := range versions {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{"0.0.9", "0.1.0-rc.1", "0.1.0", "1.0.0-alpha", "1.0.0", "1.0.1", "1.1.0", "2.0.0+meta"}, got)
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"0.0.0", "1.2.3", "10.20.30", "1.0.0-alpha.1", "1.0.0-0.3.7"} {
		v := MustParse(s)
		again, err := Parse(v.String())
		require.NoError(t, err)
		assert.True(t, v.Equal(again))
		assert.Equal(t, s, again.String())
	}

	v, err := New(3, 1, 4, "rc.2", "")
	require.NoError(t, err)
	assert.Equal(t, "3.1.4-rc.2", v.String())
	again := MustParse(v.String())
	assert.Equal(t, 0, Compare(v, again))
}

func TestIsCompatible(t *testing.T) {
	testCases := map[string]struct {
		a, b string
		want bool
	}{
		"same version":              {"1.2.3", "1.2.3", true},
		"newer patch":               {"1.2.4", "1.2.3", true},
		"newer minor":               {"1.3.0", "1.2.3", true},
		"older":                     {"1.2.2", "1.2.3", false},
		"different major":           {"2.0.0", "1.2.3", false},
		"zero major same minor":     {"0.18.2", "0.18.0", true},
		"zero major newer minor":    {"0.19.0", "0.18.0", false},
		"zero major older patch":    {"0.18.0", "0.18.1", false},
		"prerelease below required": {"1.2.3-rc.1", "1.2.3", false},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsCompatible(MustParse(tc.a), MustParse(tc.b)))
		})
	}
	assert.False(t, IsCompatible(Version{}, MustParse("1.0.0")))
}

func TestMajorMinorAndBump(t *testing.T) {
	assert.Equal(t, "1.2", MustParse("1.2.3-rc.1").MajorMinor())
	assert.Equal(t, "0.0", Version{}.MajorMinor())

	assert.Equal(t, BumpMajor, BumpKind(MustParse("1.9.9"), MustParse("2.0.0")))
	assert.Equal(t, BumpMinor, BumpKind(MustParse("1.2.3"), MustParse("1.3.0")))
	assert.Equal(t, BumpPatch, BumpKind(MustParse("1.2.3"), MustParse("1.2.4")))
	assert.Equal(t, BumpPrerelease, BumpKind(MustParse("1.2.3-rc.1"), MustParse("1.2.3")))
	assert.Equal(t, BumpNone, BumpKind(MustParse("1.2.3"), MustParse("1.2.3+b")))
	assert.Equal(t, BumpNone, BumpKind(Version{}, MustParse("1.2.3")))
}

func TestZeroVersion(t *testing.T) {
	var v Version
	assert.True(t, v.IsZero())
	assert.Equal(t, "", v.String())
	assert.Equal(t, -1, Compare(v, MustParse("0.0.0")))
	assert.Equal(t, 0, Compare(v, Version{}))
}
