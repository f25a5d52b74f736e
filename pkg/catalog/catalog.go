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

// Package catalog builds the snapshot of upstream versions a reconciliation
// pass works from.
package catalog

import (
	"fmt"
	"strings"

	"github.com/kptdev/chartsync/pkg/semver"
	"k8s.io/klog/v2"
)

// Catalog is an immutable snapshot of the valid versions published upstream.
// Rebuilding is the only way to change it.
type Catalog struct {
	ordered      []semver.Version
	latestByLine map[string]semver.Version
	lines        []string
	skipped      []string
}

// Build filters tags down to valid semantic versions, sorts them ascending and
// records the highest version of every major.minor line. Tags may arrive in
// any order and contain duplicates. An empty or fully invalid input yields an
// empty catalog.
func Build(tags []string) *Catalog {
	c := &Catalog{
		latestByLine: make(map[string]semver.Version),
	}

	seen := make(map[string]bool)
	for _, tag := range tags {
		v, err := semver.Parse(tag)
		if err != nil {
			klog.V(3).Infof("Failed to parse tag %q as semantic version, ignoring", tag)
			c.skipped = append(c.skipped, tag)
			continue
		}
		if seen[v.String()] {
			continue
		}
		seen[v.String()] = true
		c.ordered = append(c.ordered, v)
	}

	semver.Sort(c.ordered)

	for _, v := range c.ordered {
		mm := v.MajorMinor()
		cur, found := c.latestByLine[mm]
		if !found {
			c.lines = append(c.lines, mm)
		}
		if !found || v.GreaterThan(cur) {
			c.latestByLine[mm] = v
		}
	}
	return c
}

// Ordered returns all versions in ascending order.
func (c *Catalog) Ordered() []semver.Version {
	out := make([]semver.Version, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Latest returns the highest version in the catalog.
func (c *Catalog) Latest() (semver.Version, bool) {
	if len(c.ordered) == 0 {
		return semver.Version{}, false
	}
	return c.ordered[len(c.ordered)-1], true
}

// LatestFor returns the highest version of the given major.minor line.
func (c *Catalog) LatestFor(majorMinor string) (semver.Version, bool) {
	v, found := c.latestByLine[majorMinor]
	return v, found
}

// Lines returns the major.minor keys present in the catalog, lowest first.
func (c *Catalog) Lines() []string {
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Skipped returns the input tags that were not valid semantic versions.
func (c *Catalog) Skipped() []string {
	out := make([]string, len(c.skipped))
	copy(out, c.skipped)
	return out
}

func (c *Catalog) Len() int { return len(c.ordered) }

func (c *Catalog) Empty() bool { return len(c.ordered) == 0 }

// String summarises the catalog for log output.
func (c *Catalog) String() string {
	latest, found := c.Latest()
	if !found {
		return "no versions"
	}
	return fmt.Sprintf("%d versions, latest %s, lines [%s]", c.Len(), latest, strings.Join(c.lines, ", "))
}
