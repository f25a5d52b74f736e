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

package catalog

import (
	"testing"

	"github.com/kptdev/chartsync/pkg/semver"
	"github.com/stretchr/testify/assert"
)

func versionStrings(vs []semver.Version) []string {
	out := []string{}
	for _, v := range vs {
		out = append(out, v.String())
	}
	return out
}

func TestBuild(t *testing.T) {
	testCases := map[string]struct {
		tags        []string
		ordered     []string
		latest      string
		latestByMM  map[string]string
		lines       []string
		skippedTags []string
	}{
		"unordered with duplicates": {
			tags:       []string{"1.2.0", "1.10.0", "1.2.5", "1.2.0", "1.9.1"},
			ordered:    []string{"1.2.0", "1.2.5", "1.9.1", "1.10.0"},
			latest:     "1.10.0",
			latestByMM: map[string]string{"1.2": "1.2.5", "1.9": "1.9.1", "1.10": "1.10.0"},
			lines:      []string{"1.2", "1.9", "1.10"},
		},
		"non semver tags filtered": {
			tags:        []string{"latest", "0.18", "0.18.2", "sha256-abc.sig", "0.18.3-rc.1", "canary"},
			ordered:     []string{"0.18.2", "0.18.3-rc.1"},
			latest:      "0.18.3-rc.1",
			latestByMM:  map[string]string{"0.18": "0.18.3-rc.1"},
			lines:       []string{"0.18"},
			skippedTags: []string{"latest", "0.18", "sha256-abc.sig", "canary"},
		},
		"prerelease lower than release": {
			tags:       []string{"2.0.0", "2.0.0-rc.1"},
			ordered:    []string{"2.0.0-rc.1", "2.0.0"},
			latest:     "2.0.0",
			latestByMM: map[string]string{"2.0": "2.0.0"},
			lines:      []string{"2.0"},
		},
		"no valid versions": {
			tags:        []string{"latest", "foo", "1.a.2"},
			ordered:     []string{},
			latestByMM:  map[string]string{},
			lines:       []string{},
			skippedTags: []string{"latest", "foo", "1.a.2"},
		},
		"empty input": {
			tags:       nil,
			ordered:    []string{},
			latestByMM: map[string]string{},
			lines:      []string{},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			c := Build(tc.tags)

			assert.Equal(t, tc.ordered, versionStrings(c.Ordered()))
			assert.Equal(t, tc.lines, c.Lines())
			assert.Equal(t, len(tc.ordered), c.Len())

			latest, found := c.Latest()
			if tc.latest == "" {
				assert.False(t, found)
				assert.True(t, c.Empty())
				assert.Equal(t, "no versions", c.String())
			} else {
				assert.True(t, found)
				assert.Equal(t, tc.latest, latest.String())
			}

			for mm, want := range tc.latestByMM {
				got, found := c.LatestFor(mm)
				assert.True(t, found, mm)
				assert.Equal(t, want, got.String())
			}
			_, found = c.LatestFor("99.99")
			assert.False(t, found)

			if tc.skippedTags == nil {
				assert.Empty(t, c.Skipped())
			} else {
				assert.Equal(t, tc.skippedTags, c.Skipped())
			}
		})
	}
}

func TestBuild_snapshotIsolation(t *testing.T) {
	c := Build([]string{"1.0.0", "1.1.0"})

	ordered := c.Ordered()
	ordered[0] = semver.MustParse("9.9.9")
	lines := c.Lines()
	lines[0] = "9.9"

	assert.Equal(t, []string{"1.0.0", "1.1.0"}, versionStrings(c.Ordered()))
	assert.Equal(t, []string{"1.0", "1.1"}, c.Lines())
}
