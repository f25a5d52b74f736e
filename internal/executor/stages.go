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
	"os"

	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/internal/types"
	"github.com/kptdev/chartsync/pkg/oci"
	"github.com/kptdev/chartsync/pkg/plan"
)

// ReconcileTags makes sure every target version is tagged on its line. Tags
// are created from the remote branch, so nothing is checked out.
func (x *Executor) ReconcileTags(ctx context.Context, targets []plan.Target) []TagReport {
	var reports []TagReport
	for _, t := range targets {
		reports = append(reports, x.tag(ctx, t))
	}
	return reports
}

// ReconcilePackages makes sure every target version is published to the
// registry. Versions already present are left untouched.
func (x *Executor) ReconcilePackages(ctx context.Context, targets []plan.Target) []PackageReport {
	var reports []PackageReport
	for _, t := range targets {
		reports = append(reports, x.publish(ctx, t, false))
	}
	return reports
}

func (x *Executor) tag(ctx context.Context, t plan.Target) TagReport {
	name := t.Line.Tag(t.Version)
	key := handledKey("tag", name)
	if i, found := x.handled[key]; found {
		return x.tags[i]
	}
	r := x.doTag(ctx, t, name)
	x.handled[key] = len(x.tags)
	x.tags = append(x.tags, r)
	return r
}

func (x *Executor) doTag(ctx context.Context, t plan.Target, name string) TagReport {
	const op errors.Op = "executor.tag"
	r := TagReport{Line: t.Line, Tag: name}

	if x.remoteTags == nil {
		tags, err := x.VCS.RemoteTags(ctx)
		if err != nil {
			r.Outcome = types.NotFound
			r.fail(errors.E(op, errors.Line(t.Line.String()), err))
			return r
		}
		x.remoteTags = tags
	}
	if _, found := x.remoteTags[name]; found {
		r.Outcome = types.Exists
		x.printf(ctx, t.Line, "tag %s already exists", name)
		return r
	}

	ref := x.VCS.RemoteRef(x.branch(t.Line))
	if x.DryRun {
		x.printf(ctx, t.Line, "would create tag %s at %s", name, ref)
		r.Outcome, r.DryRun = types.NoOp, true
		return r
	}

	// Only tag a branch that really records the version.
	m, err := x.readManifestAt(ctx, ref)
	if err != nil {
		r.Outcome = types.NotFound
		r.fail(errors.E(op, errors.Line(t.Line.String()), err))
		return r
	}
	if m.AppVersion() != t.Version.String() {
		r.Outcome = types.NotFound
		r.fail(errors.E(op, errors.Line(t.Line.String()), errors.Conflict,
			fmt.Errorf("%s records appVersion %q, not %s", ref, m.AppVersion(), t.Version)))
		return r
	}

	outcome, err := x.VCS.CreateTag(ctx, name, ref)
	if err != nil {
		r.Outcome = outcome
		r.fail(errors.E(op, errors.Line(t.Line.String()), err))
		return r
	}
	outcome, err = x.VCS.PushTag(ctx, name)
	r.Outcome = outcome
	switch {
	case outcome == types.Rejected:
		cause := err
		if cause == nil {
			cause = fmt.Errorf("remote refused tag %s", name)
		}
		r.fail(errors.E(op, errors.Line(t.Line.String()), errors.Conflict, cause))
	case err != nil:
		r.fail(errors.E(op, errors.Line(t.Line.String()), err))
	default:
		x.remoteTags[name] = ""
		if outcome == types.OK {
			x.printf(ctx, t.Line, "tagged %s", name)
		}
	}
	return r
}

func (x *Executor) publish(ctx context.Context, t plan.Target, checkedOut bool) PackageReport {
	key := handledKey("package", t.Line.Tag(t.Version))
	if i, found := x.handled[key]; found {
		return x.packages[i]
	}
	r := x.doPublish(ctx, t, checkedOut)
	x.handled[key] = len(x.packages)
	x.packages = append(x.packages, r)
	return r
}

func (x *Executor) doPublish(ctx context.Context, t plan.Target, checkedOut bool) PackageReport {
	const op errors.Op = "executor.publish"
	r := PackageReport{Line: t.Line, Version: t.Version}
	if x.RegistryURL == "" {
		r.Outcome = types.NotFound
		r.fail(errors.E(op, errors.Line(t.Line.String()), errors.MissingParam,
			fmt.Errorf("no registry configured")))
		return r
	}

	branch := x.branch(t.Line)
	m, err := x.readManifestAt(ctx, x.VCS.RemoteRef(branch))
	if err != nil && x.DryRun {
		// A line created by this run has no remote branch yet. Its chart has
		// the name recorded in the working tree.
		m, err = x.Manifests.Read(ctx)
	}
	if err != nil {
		r.Outcome = types.NotFound
		r.fail(errors.E(op, errors.Line(t.Line.String()), err))
		return r
	}
	chartName := m.Name()
	version := t.Version.String()
	if m.AppVersion() == version && m.Version() != "" {
		version = m.Version()
	}
	r.Ref = oci.ChartReference(x.RegistryURL, chartName, version).String()

	found, err := x.Publisher.Exists(ctx, x.RegistryURL, chartName, version)
	if err != nil {
		r.Outcome = types.NotFound
		r.fail(errors.E(op, errors.Line(t.Line.String()), err))
		return r
	}
	if found {
		r.Outcome = types.Exists
		x.printf(ctx, t.Line, "package %s already exists", r.Ref)
		return r
	}
	if x.DryRun {
		x.printf(ctx, t.Line, "would package %s and push it to %s", branch, r.Ref)
		r.Outcome, r.DryRun = types.NoOp, true
		return r
	}

	if !checkedOut {
		if err := x.VCS.Checkout(ctx, branch); err != nil {
			r.Outcome = types.NotFound
			r.fail(errors.E(op, errors.Line(t.Line.String()), err))
			return r
		}
	}
	wm, err := x.Manifests.Read(ctx)
	if err != nil {
		r.Outcome = types.NotFound
		r.fail(errors.E(op, errors.Line(t.Line.String()), err))
		return r
	}
	if wm.Version() != version {
		r.Outcome = types.NotFound
		r.fail(errors.E(op, errors.Line(t.Line.String()), errors.Conflict,
			fmt.Errorf("branch %s records chart version %q, not %s", branch, wm.Version(), version)))
		return r
	}

	dir := x.ArchiveDir
	if dir == "" {
		dir, err = os.MkdirTemp("", "chartsync-")
		if err != nil {
			r.Outcome = types.NotFound
			r.fail(errors.E(op, errors.IO, err))
			return r
		}
		defer os.RemoveAll(dir)
	}
	archive, err := x.Packager.Package(ctx, dir)
	if err != nil {
		r.Outcome = types.NotFound
		r.fail(errors.E(op, errors.Line(t.Line.String()), err))
		return r
	}
	outcome, ref, err := x.Publisher.Push(ctx, archive, x.RegistryURL)
	r.Outcome = outcome
	if ref != "" {
		r.Ref = ref
	}
	if err != nil {
		r.fail(errors.E(op, errors.Line(t.Line.String()), err))
		return r
	}
	x.printf(ctx, t.Line, "pushed %s", r.Ref)
	return r
}
