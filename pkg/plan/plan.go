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

// Package plan resolves, for every tracked release line, the version it should
// record and the action needed to get there.
package plan

import (
	"fmt"
	"strings"

	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/pkg/releaseline"
	"github.com/kptdev/chartsync/pkg/semver"
)

// Action is the kind of change a plan entry requires.
type Action int

const (
	NoOp Action = iota
	PatchOrMinorUpdate
	NewLineCreation
	RejectedCrossBoundary
)

func (a Action) String() string {
	switch a {
	case NoOp:
		return "NoOp"
	case PatchOrMinorUpdate:
		return "PatchOrMinorUpdate"
	case NewLineCreation:
		return "NewLineCreation"
	case RejectedCrossBoundary:
		return "RejectedCrossBoundary"
	}
	return "Unknown"
}

// MarshalText renders the action by name in JSON and YAML summaries.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Mutates reports whether executing the action changes the line.
func (a Action) Mutates() bool {
	return a == PatchOrMinorUpdate || a == NewLineCreation
}

// LineState is the version currently recorded on a line, as read from the
// line's manifest.
type LineState struct {
	Line releaseline.Line
	// Raw is the recorded value as found in the manifest.
	Raw string
	// Version is the parsed value of Raw; zero when Raw is not a version.
	Version semver.Version
	// Err is set when Raw could not be read or parsed.
	Err error
	// Ref is the git revision the manifest was read from.
	Ref string
}

// NewLineState parses raw into the recorded version of line.
func NewLineState(line releaseline.Line, raw, ref string) LineState {
	s := LineState{Line: line, Raw: raw, Ref: ref}
	v, err := semver.Parse(raw)
	if err != nil {
		s.Err = errors.E(errors.Line(line.String()), err)
		return s
	}
	s.Version = v
	return s
}

// UnreadableLineState records a line whose manifest could not be read.
func UnreadableLineState(line releaseline.Line, ref string, err error) LineState {
	return LineState{Line: line, Ref: ref, Err: errors.E(errors.Line(line.String()), err)}
}

// Known reports whether the line has a valid recorded version.
func (s LineState) Known() bool {
	return s.Err == nil && !s.Version.IsZero()
}

// Entry is one line's resolved target and the action required to reach it.
type Entry struct {
	Line releaseline.Line
	// From is the recorded version; zero for a line that does not exist yet
	// or whose version is unknown.
	From    semver.Version
	FromRaw string
	To      semver.Version
	Action  Action
	// Compatible is the advisory caret compatibility of To with From.
	Compatible bool
	Bump       semver.Bump
	// Ref is the revision the line state was read from.
	Ref string
	// Base is the revision a NewLineCreation entry is branched from.
	Base     string
	Warnings []string
	// Err records why a line was rejected or left untouched, if it was an
	// error rather than an up-to-date line.
	Err error
}

func (e *Entry) warnf(format string, args ...interface{}) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// Describe returns a one line, human readable description of the entry.
func (e Entry) Describe() string {
	switch e.Action {
	case PatchOrMinorUpdate:
		return fmt.Sprintf("%s: update %s -> %s (%s bump)", e.Line, e.From, e.To, e.Bump)
	case NewLineCreation:
		return fmt.Sprintf("%s: create line at %s from %s", e.Line, e.To, shortRef(e.Base))
	case RejectedCrossBoundary:
		return fmt.Sprintf("%s: rejected %s -> %s crosses the line boundary", e.Line, e.From, e.To)
	}
	cur := e.FromRaw
	if cur == "" {
		cur = "unknown"
	}
	if len(e.Warnings) > 0 {
		return fmt.Sprintf("%s: no change at %s (%s)", e.Line, cur, strings.Join(e.Warnings, "; "))
	}
	return fmt.Sprintf("%s: up to date at %s", e.Line, cur)
}

func shortRef(ref string) string {
	if len(ref) == 40 {
		return ref[:7]
	}
	if ref == "" {
		return "main"
	}
	return ref
}

// Plan is the ordered list of entries produced by one resolution pass. It is
// consumed once and never persisted.
type Plan struct {
	Entries []Entry
	// Latest is the newest version in the catalog the plan was built from.
	Latest   semver.Version
	Warnings []string
}

// Changes returns the entries whose action mutates their line, in plan order.
func (p *Plan) Changes() []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if e.Action.Mutates() {
			out = append(out, e)
		}
	}
	return out
}

// Entry returns the entry for line, if the plan has one.
func (p *Plan) Entry(line releaseline.Line) (Entry, bool) {
	for _, e := range p.Entries {
		if e.Line == line {
			return e, true
		}
	}
	return Entry{}, false
}

// Target is the version a line is expected to record once the plan has been
// executed, used by the tag and package stages.
type Target struct {
	Line    releaseline.Line
	Version semver.Version
	// Created is set for lines the plan brings into existence.
	Created bool
}

// Targets returns the expected recorded version of every line in the plan.
// applied reports whether a mutating entry actually took effect; when it
// returns false the line is expected to still record its previous version.
// A nil applied treats every mutating entry as applied, which is what a dry
// run reports. Lines without a known version are omitted.
func (p *Plan) Targets(applied func(Entry) bool) []Target {
	var out []Target
	for _, e := range p.Entries {
		if e.Action.Mutates() && (applied == nil || applied(e)) {
			out = append(out, Target{Line: e.Line, Version: e.To, Created: e.Action == NewLineCreation})
			continue
		}
		if e.Action == NewLineCreation || e.From.IsZero() {
			continue
		}
		out = append(out, Target{Line: e.Line, Version: e.From})
	}
	return out
}

// String renders the plan, one entry per line.
func (p *Plan) String() string {
	var b strings.Builder
	for _, w := range p.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	for _, e := range p.Entries {
		b.WriteString(e.Describe())
		b.WriteString("\n")
	}
	return b.String()
}
