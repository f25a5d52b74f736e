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

// Package reconcile runs a complete reconciliation: it discovers the release
// lines of a repository, resolves them against the upstream versions of an
// image and carries out the resulting plan.
package reconcile

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/kptdev/chartsync/internal/chart"
	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/internal/executor"
	"github.com/kptdev/chartsync/internal/upstream"
	"github.com/kptdev/chartsync/pkg/catalog"
	"github.com/kptdev/chartsync/pkg/plan"
	"github.com/kptdev/chartsync/pkg/printer"
	"github.com/kptdev/chartsync/pkg/releaseline"
	"k8s.io/klog/v2"
)

// VCS is everything a run needs from version control. *gitutil.Repo
// implements it.
type VCS interface {
	executor.VCS
	Fetch(ctx context.Context) error
	RemoteBranches(ctx context.Context) ([]string, error)
	LocalBranches(ctx context.Context) ([]string, error)
	CurrentBranch(ctx context.Context) (string, error)
	RevParse(ctx context.Context, ref string) (string, error)
}

// Command reconciles one repository against one upstream image.
type Command struct {
	VCS       VCS
	Manifests executor.ManifestStore
	Packager  executor.Packager
	Publisher executor.Publisher
	Lister    upstream.Lister

	// Image is the upstream image whose tags are the available versions.
	Image    string
	PageSize int

	// Remote is the git remote lines are read from and pushed to.
	Remote     string
	MainBranch string

	ManageBranches bool
	ManageTags     bool
	ManageOCI      bool
	RegistryURL    string
	ArchiveDir     string

	DryRun bool
}

// Run executes the reconciliation and always returns a summary, also when
// an error stops the run early.
func (c Command) Run(ctx context.Context) (*Summary, error) {
	const op errors.Op = "reconcile.Run"
	pr := printer.FromContextOrDie(ctx)
	if c.MainBranch == "" {
		c.MainBranch = releaseline.DefaultMainBranch
	}
	s := &Summary{Image: c.Image, DryRun: c.DryRun}

	original, err := c.VCS.CurrentBranch(ctx)
	if err != nil {
		s.fail(err)
		return s.finish(), errors.E(op, err)
	}
	defer c.restore(ctx, original, s)

	if err := c.VCS.Fetch(ctx); err != nil {
		klog.Warningf("fetch failed, continuing with local knowledge: %v", err)
		s.warnf("fetch failed: %v", err)
	}

	pr.Printf("Listing tags of %s\n", c.Image)
	tags, err := c.Lister.ListTags(ctx, c.Image, c.PageSize)
	if err != nil {
		err = errors.E(op, errors.External, err)
		s.fail(err)
		return s.finish(), err
	}
	cat := catalog.Build(tags)
	s.Versions = cat.Len()
	if latest, found := cat.Latest(); found {
		s.Latest = latest.String()
	}
	for _, tag := range cat.Skipped() {
		klog.V(3).Infof("skipping tag %q, not a semantic version", tag)
	}

	in := c.discover(ctx, cat, s)
	p := plan.Resolve(in)
	s.Warnings = append(s.Warnings, p.Warnings...)
	pr.Printf("%s", p.String())

	x := executor.New(c.VCS, c.Manifests, c.Packager, c.Publisher, executor.Options{
		MainBranch:  c.MainBranch,
		ManageTags:  c.ManageTags && c.ManageBranches,
		ManageOCI:   c.ManageOCI && c.ManageBranches,
		RegistryURL: c.RegistryURL,
		ArchiveDir:  c.ArchiveDir,
		DryRun:      c.DryRun,
	})

	s.Lines = executor.Describe(p)
	applied := func(plan.Entry) bool { return false }
	if c.ManageBranches {
		c.stage(ctx, s, "branches", func() {
			s.Lines = x.Apply(ctx, p)
		})
		applied = executor.Applied(s.Lines)
		if c.DryRun {
			// Report what a real run would tag and publish.
			applied = nil
		}
	}
	targets := p.Targets(applied)
	if c.ManageTags {
		c.stage(ctx, s, "tags", func() {
			x.ReconcileTags(ctx, targets)
		})
	}
	if c.ManageOCI {
		c.stage(ctx, s, "packages", func() {
			x.ReconcilePackages(ctx, targets)
		})
	}
	s.Tags = x.Tags()
	s.Packages = x.Packages()
	return s.finish(), nil
}

// stage runs fn, turning a panic into a failure of the run so that the
// summary is still produced.
func (c Command) stage(ctx context.Context, s *Summary, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("stage %s panicked: %v\n%s", name, r, debug.Stack())
			s.fail(errors.E(errors.Op("reconcile."+name), errors.Internal, fmt.Errorf("panic: %v", r)))
		}
	}()
	printer.FromContextOrDie(ctx).Printf("\nStage %s\n", name)
	fn()
}

// restore checks out the branch that was checked out when the run started.
// A failure is logged and never fails the run.
func (c Command) restore(ctx context.Context, original string, s *Summary) {
	current, err := c.VCS.CurrentBranch(ctx)
	if err == nil && current == original {
		return
	}
	if err := c.VCS.Checkout(ctx, original); err != nil {
		klog.Warningf("unable to restore branch %s: %v", original, err)
		s.warnf("unable to restore branch %s: %v", original, err)
	}
}

// discover finds the release lines of the repository and reads their
// recorded versions. Remote-tracking branches are preferred over local ones.
func (c Command) discover(ctx context.Context, cat *catalog.Catalog, s *Summary) plan.Input {
	in := plan.Input{Catalog: cat, Known: releaseline.Set{}}

	remote, err := c.VCS.RemoteBranches(ctx)
	if err != nil {
		s.warnf("unable to list remote branches: %v", err)
	}
	local, err := c.VCS.LocalBranches(ctx)
	if err != nil {
		s.warnf("unable to list local branches: %v", err)
	}
	in.Known.Add(c.Remote, remote...)
	in.Known.Add("", local...)

	mainRef := c.VCS.RemoteRef(c.MainBranch)
	sha, err := c.VCS.RevParse(ctx, mainRef)
	if err != nil {
		klog.V(3).Infof("%s not found, reading %s", mainRef, c.MainBranch)
		mainRef = c.MainBranch
		sha, err = c.VCS.RevParse(ctx, mainRef)
	}
	if err != nil {
		in.Main = plan.UnreadableLineState(releaseline.Main(), mainRef, err)
	} else {
		in.Main = c.readState(ctx, releaseline.Main(), sha)
	}

	seen := map[string]bool{}
	add := func(branch, prefix, ref string) {
		l, ok := releaseline.FromBranch(branch, prefix)
		if !ok || seen[l.MajorMinor()] {
			return
		}
		seen[l.MajorMinor()] = true
		in.Maintenance = append(in.Maintenance, c.readState(ctx, l, ref))
	}
	for _, b := range remote {
		add(b, c.Remote, b)
	}
	for _, b := range local {
		add(b, "", b)
	}
	return in
}

func (c Command) readState(ctx context.Context, l releaseline.Line, ref string) plan.LineState {
	b, err := c.VCS.ReadFile(ctx, ref, c.Manifests.Path())
	if err != nil {
		return plan.UnreadableLineState(l, ref, err)
	}
	m, err := chart.ParseManifest(b)
	if err != nil {
		return plan.UnreadableLineState(l, ref, err)
	}
	return plan.NewLineState(l, m.AppVersion(), ref)
}
