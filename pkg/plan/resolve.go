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

package plan

import (
	"fmt"

	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/pkg/releaseline"
	"github.com/kptdev/chartsync/pkg/semver"
	"k8s.io/klog/v2"
)

// Catalog is the view of the upstream versions the resolver needs.
// *catalog.Catalog implements it.
type Catalog interface {
	Latest() (semver.Version, bool)
	LatestFor(majorMinor string) (semver.Version, bool)
}

// Input is everything a resolution pass looks at.
type Input struct {
	Catalog Catalog
	// Main is the recorded state of the Main line.
	Main LineState
	// Maintenance holds the existing Maintenance lines in discovery order.
	Maintenance []LineState
	// Known holds every Maintenance line identifier seen locally or on the
	// remote, including ones without a readable state.
	Known releaseline.Set
}

// Resolve computes the reconciliation plan: Main first, then a new
// Maintenance line if Main leaves its major.minor behind, then every
// existing Maintenance line in discovery order. Resolution of one line
// never prevents resolution of the others.
func Resolve(in Input) *Plan {
	p := &Plan{}

	latest, found := in.Catalog.Latest()
	if !found {
		p.Warnings = append(p.Warnings, errors.E(errors.CatalogEmpty,
			"no valid semantic versions found upstream").Error())
	} else {
		p.Latest = latest
	}

	mainEntry := resolveMain(in.Main, latest, found)
	p.Entries = append(p.Entries, mainEntry)

	known := releaseline.Set{}
	for mm := range in.Known {
		known[mm] = true
	}
	for _, s := range in.Maintenance {
		known[s.Line.MajorMinor()] = true
	}

	if e, ok := resolveNewLine(in, mainEntry, known); ok {
		p.Entries = append(p.Entries, e)
	}

	for _, s := range in.Maintenance {
		p.Entries = append(p.Entries, resolveMaintenance(in.Catalog, s))
	}

	for _, e := range p.Entries {
		klog.V(2).Infof("resolved %s", e.Describe())
	}
	return p
}

func resolveMain(s LineState, latest semver.Version, haveLatest bool) Entry {
	e := Entry{
		Line:    releaseline.Main(),
		From:    s.Version,
		FromRaw: s.Raw,
		To:      s.Version,
		Action:  NoOp,
		Ref:     s.Ref,
	}

	switch {
	case !s.Known():
		e.Err = s.Err
		if e.Err == nil {
			e.Err = errors.E(errors.InvalidVersion, "no recorded version")
		}
		e.warnf("current version %q is not a valid semantic version", s.Raw)
		return e
	case !haveLatest:
		e.warnf("no upstream versions found")
		return e
	}

	switch semver.Compare(latest, s.Version) {
	case 0:
		return e
	case -1:
		e.warnf("upstream latest %s is older than recorded %s, not downgrading", latest, s.Version)
		return e
	}

	e.To = latest
	e.Action = PatchOrMinorUpdate
	e.Bump = semver.BumpKind(s.Version, latest)
	e.Compatible = semver.IsCompatible(latest, s.Version)
	if !e.Compatible {
		e.warnf("%s is not caret-compatible with %s", latest, s.Version)
	}
	return e
}

// resolveNewLine schedules a Maintenance line for the major.minor Main is
// about to leave, unless a line for it already exists locally or remotely.
// The line starts from Main's state before Main is updated.
func resolveNewLine(in Input, mainEntry Entry, known releaseline.Set) (Entry, bool) {
	if mainEntry.Action != PatchOrMinorUpdate {
		return Entry{}, false
	}
	leaving := mainEntry.From.MajorMinor()
	if mainEntry.To.MajorMinor() == leaving {
		return Entry{}, false
	}
	if known.Has(leaving) {
		klog.V(3).Infof("line v%s already exists, not creating it", leaving)
		return Entry{}, false
	}

	line := releaseline.ForVersion(mainEntry.From)
	target := mainEntry.From
	if v, found := in.Catalog.LatestFor(leaving); found && v.GreaterThan(target) {
		target = v
	}

	e := Entry{
		Line:       line,
		To:         target,
		Action:     NewLineCreation,
		Bump:       semver.BumpKind(mainEntry.From, target),
		Compatible: true,
		Ref:        mainEntry.Ref,
		Base:       mainEntry.Ref,
	}
	return e, true
}

func resolveMaintenance(cat Catalog, s LineState) Entry {
	mm := s.Line.MajorMinor()
	e := Entry{
		Line:    s.Line,
		From:    s.Version,
		FromRaw: s.Raw,
		To:      s.Version,
		Action:  NoOp,
		Ref:     s.Ref,
	}

	target, found := cat.LatestFor(mm)
	if !found {
		e.warnf("no matching version for %s upstream", mm)
		return e
	}
	if !s.Known() {
		e.Err = s.Err
		e.warnf("current version %q is not a valid semantic version", s.Raw)
		return e
	}

	switch semver.Compare(target, s.Version) {
	case 0:
		return e
	case -1:
		e.warnf("upstream %s is older than recorded %s, not downgrading", target, s.Version)
		return e
	}

	e.To = target
	e.Bump = semver.BumpKind(s.Version, target)
	e.Compatible = semver.IsCompatible(target, s.Version)
	if !s.Line.Contains(target) || !s.Line.Contains(s.Version) {
		e.Action = RejectedCrossBoundary
		e.Err = errors.E(errors.Line(s.Line.String()), errors.CrossBoundary,
			fmt.Errorf("candidate %s for line %s recorded at %s", target, mm, s.Version))
		e.warnf("candidate %s crosses the %s boundary", target, mm)
		return e
	}
	e.Action = PatchOrMinorUpdate
	return e
}
