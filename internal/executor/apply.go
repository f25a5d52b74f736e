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

package executor

import (
	"context"
	"fmt"

	"github.com/kptdev/chartsync/internal/chart"
	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/internal/types"
	"github.com/kptdev/chartsync/pkg/plan"
	"github.com/kptdev/chartsync/pkg/printer"
	"github.com/kptdev/chartsync/pkg/semver"
	"k8s.io/klog/v2"
)

// Apply executes every mutating entry of p in plan order and returns one
// report per entry of p. A failing entry never stops the entries after it.
func (x *Executor) Apply(ctx context.Context, p *plan.Plan) []EntryReport {
	var reports []EntryReport
	for _, e := range p.Entries {
		r := newEntryReport(e)
		if e.Action.Mutates() {
			x.applyEntry(ctx, e, &r)
		}
		reports = append(reports, r)
	}
	return reports
}

// Describe returns the reports of a plan whose entries are not executed.
func Describe(p *plan.Plan) []EntryReport {
	var reports []EntryReport
	for _, e := range p.Entries {
		reports = append(reports, newEntryReport(e))
	}
	return reports
}

func newEntryReport(e plan.Entry) EntryReport {
	r := EntryReport{
		Line:     e.Line,
		Action:   e.Action,
		From:     e.From,
		To:       e.To,
		Warnings: append([]string(nil), e.Warnings...),
	}
	if e.Err != nil {
		// Rejected and unreadable lines are reported, not failed.
		r.Warnings = append(r.Warnings, e.Err.Error())
	}
	return r
}

// Applied reports whether the entry of line took effect according to
// reports. It is meant to be passed to plan.Targets.
func Applied(reports []EntryReport) func(plan.Entry) bool {
	return func(e plan.Entry) bool {
		for _, r := range reports {
			if r.Line == e.Line {
				return r.Applied
			}
		}
		return false
	}
}

func (x *Executor) applyEntry(ctx context.Context, e plan.Entry, r *EntryReport) {
	const op errors.Op = "executor.applyEntry"
	pr := printer.FromContextOrDie(ctx)
	pr.PrintLine(e.Line.String(), true)
	pr.Printf("%s\n", e.Describe())

	if !x.switchBranch(ctx, e, r) {
		return
	}

	var m *chart.Manifest
	var err error
	if x.DryRun {
		// The working tree is not on the line's branch in a dry run.
		m, err = x.readManifestAt(ctx, e.Ref)
	} else {
		m, err = x.Manifests.Read(ctx)
	}
	if err != nil {
		r.fail(errors.E(op, errors.Line(e.Line.String()), err))
		return
	}

	fields := []struct {
		step    StepName
		field   string
		current func() string
		set     func(string) (bool, error)
		msg     string
	}{
		{StepUpdateAppVersion, "appVersion", m.AppVersion, m.SetAppVersion, appVersionCommitMsg},
		{StepUpdateVersion, "version", m.Version, m.SetVersion, versionCommitMsg},
	}
	for _, f := range fields {
		s := x.updateField(ctx, e, r, m, f.step, f.field, f.current(), f.set, f.msg)
		r.Steps = append(r.Steps, s)
		if s.Err != nil {
			r.fail(s.Err)
			return
		}
	}

	s := x.push(ctx, e)
	r.Steps = append(r.Steps, s)
	if s.Err != nil {
		r.fail(s.Err)
		return
	}
	if x.DryRun {
		return
	}
	r.Applied = true

	target := plan.Target{Line: e.Line, Version: e.To, Created: e.Action == plan.NewLineCreation}
	if x.ManageTags {
		tr := x.tag(ctx, target)
		r.Steps = append(r.Steps, Step{Name: StepTag, Outcome: tr.Outcome, Detail: tr.Tag, Err: tr.Err, Error: tr.Error})
	}
	if x.ManageOCI {
		// The branch is checked out already.
		pkg := x.publish(ctx, target, true)
		r.Steps = append(r.Steps, Step{Name: StepPackage, Outcome: pkg.Outcome, Detail: pkg.Ref, Err: pkg.Err, Error: pkg.Error})
	}
}

// switchBranch checks out or creates the branch of the entry and reports
// whether the entry can go on.
func (x *Executor) switchBranch(ctx context.Context, e plan.Entry, r *EntryReport) bool {
	const op errors.Op = "executor.switchBranch"
	branch := x.branch(e.Line)

	if e.Action == plan.NewLineCreation {
		s := Step{Name: StepCreateBranch, Detail: fmt.Sprintf("%s from %s", branch, e.Base)}
		if x.DryRun {
			x.printf(ctx, e.Line, "would create branch %s from %s", branch, e.Base)
			s.Outcome, s.DryRun = types.NoOp, true
		} else {
			outcome, err := x.VCS.CreateBranch(ctx, branch, e.Base)
			s.Outcome = outcome
			if err != nil {
				s.fail(errors.E(op, errors.Line(e.Line.String()), err))
			} else if outcome == types.Exists {
				// Another run created it first. Its content is checked like
				// any other line below.
				r.Warnings = append(r.Warnings, fmt.Sprintf("branch %s already exists", branch))
			}
		}
		r.Steps = append(r.Steps, s)
		if s.Err != nil {
			r.fail(s.Err)
			return false
		}
		return true
	}

	s := Step{Name: StepCheckout, Detail: branch}
	if x.DryRun {
		x.printf(ctx, e.Line, "would check out %s", branch)
		s.Outcome, s.DryRun = types.NoOp, true
	} else if err := x.VCS.Checkout(ctx, branch); err != nil {
		s.Outcome = types.NotFound
		s.fail(errors.E(op, errors.Line(e.Line.String()), err))
	}
	r.Steps = append(r.Steps, s)
	if s.Err != nil {
		r.fail(s.Err)
		return false
	}
	return true
}

// updateField moves one manifest field to the target version and commits it.
// A field already at the target is left alone and a field recording a newer
// version is never downgraded.
func (x *Executor) updateField(ctx context.Context, e plan.Entry, r *EntryReport, m *chart.Manifest,
	name StepName, field, current string, set func(string) (bool, error), msgFormat string) Step {
	const op errors.Op = "executor.updateField"
	s := Step{Name: name}
	to := e.To.String()

	if cur, err := semver.Parse(current); err == nil && cur.GreaterThan(e.To) {
		s.Outcome = types.NoOp
		s.Detail = fmt.Sprintf("%s %s is newer than %s, not downgrading", field, current, to)
		r.Warnings = append(r.Warnings, s.Detail)
		klog.Warningf("%s: %s", e.Line, s.Detail)
		return s
	}
	if current == to {
		s.Outcome = types.NoOp
		s.Detail = fmt.Sprintf("%s already %s", field, to)
		return s
	}

	s.Detail = fmt.Sprintf("%s %s -> %s", field, displayValue(current), to)
	if x.DryRun {
		x.printf(ctx, e.Line, "would set %s and commit %q", s.Detail, fmt.Sprintf(msgFormat, to))
		s.Outcome, s.DryRun = types.NoOp, true
		return s
	}

	if _, err := set(to); err != nil {
		s.fail(errors.E(op, errors.Line(e.Line.String()), err))
		return s
	}
	if err := x.Manifests.Write(ctx, m); err != nil {
		s.fail(errors.E(op, errors.Line(e.Line.String()), err))
		return s
	}
	outcome, err := x.VCS.Commit(ctx, fmt.Sprintf(msgFormat, to), x.Manifests.Path())
	s.Outcome = outcome
	if err != nil {
		s.fail(errors.E(op, errors.Line(e.Line.String()), err))
		return s
	}
	if outcome == types.OK {
		r.Commits++
		x.printf(ctx, e.Line, "set %s", s.Detail)
	}
	return s
}

// push publishes the line's branch. It always runs outside a dry run so that
// commits left behind by an interrupted run reach the remote.
func (x *Executor) push(ctx context.Context, e plan.Entry) Step {
	const op errors.Op = "executor.push"
	branch := x.branch(e.Line)
	s := Step{Name: StepPush, Detail: branch}
	if x.DryRun {
		x.printf(ctx, e.Line, "would push %s", branch)
		s.Outcome, s.DryRun = types.NoOp, true
		return s
	}
	outcome, err := x.VCS.Push(ctx, branch)
	s.Outcome = outcome
	switch {
	case outcome == types.Rejected:
		cause := err
		if cause == nil {
			cause = fmt.Errorf("remote branch %s has diverged", branch)
		}
		s.fail(errors.E(op, errors.Line(e.Line.String()), errors.Conflict, cause))
	case err != nil:
		s.fail(errors.E(op, errors.Line(e.Line.String()), err))
	default:
		x.printf(ctx, e.Line, "pushed %s", branch)
	}
	return s
}

func displayValue(v string) string {
	if v == "" {
		return "<unset>"
	}
	return v
}
