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

// Package executor turns a reconciliation plan into branch updates, tags and
// published chart packages.
package executor

import (
	"context"
	"fmt"

	"github.com/kptdev/chartsync/internal/chart"
	"github.com/kptdev/chartsync/internal/types"
	"github.com/kptdev/chartsync/pkg/printer"
	"github.com/kptdev/chartsync/pkg/releaseline"
)

const (
	appVersionCommitMsg = "chore(chart): update Helm chart appVersion to %s"
	versionCommitMsg    = "chore(chart): update chart version to %s"
)

// VCS is the version-control collaborator. *gitutil.Repo implements it.
type VCS interface {
	Checkout(ctx context.Context, branch string) error
	CreateBranch(ctx context.Context, branch, base string) (types.Outcome, error)
	Commit(ctx context.Context, msg string, paths ...string) (types.Outcome, error)
	Push(ctx context.Context, branch string) (types.Outcome, error)
	CreateTag(ctx context.Context, name, ref string) (types.Outcome, error)
	PushTag(ctx context.Context, name string) (types.Outcome, error)
	RemoteTags(ctx context.Context) (map[string]string, error)
	ReadFile(ctx context.Context, ref, path string) ([]byte, error)
	RemoteRef(branch string) string
}

// ManifestStore reads and writes the chart manifest of the checked out
// branch. *chart.FileStore implements it.
type ManifestStore interface {
	Read(ctx context.Context) (*chart.Manifest, error)
	Write(ctx context.Context, m *chart.Manifest) error
	// Path is the manifest path relative to the repository root.
	Path() string
}

// Packager packages the chart of the checked out branch into destDir and
// returns the archive path. *chart.FileStore implements it.
type Packager interface {
	Package(ctx context.Context, destDir string) (string, error)
}

// Publisher stores chart archives in a registry. *oci.ChartPusher
// implements it.
type Publisher interface {
	Exists(ctx context.Context, registryURL, chartName, version string) (bool, error)
	Push(ctx context.Context, archivePath, registryURL string) (types.Outcome, string, error)
}

// Options control which parts of a plan are carried out.
type Options struct {
	// MainBranch is the branch of the Main line.
	MainBranch string
	// ManageTags enables the tag step of every applied entry.
	ManageTags bool
	// ManageOCI enables the package step of every applied entry.
	ManageOCI bool
	// RegistryURL is where packages are pushed, e.g. "ghcr.io/acme/charts".
	RegistryURL string
	// ArchiveDir receives chart archives. A temporary directory is used
	// when empty.
	ArchiveDir string
	// DryRun logs every step instead of performing it. Reads still happen.
	DryRun bool
}

// Executor carries out plans. It remembers the tags and packages it handled
// so that a later stage does not repeat work done for an entry.
type Executor struct {
	VCS       VCS
	Manifests ManifestStore
	Packager  Packager
	Publisher Publisher
	Options

	remoteTags map[string]string
	handled    map[string]int
	tags       []TagReport
	packages   []PackageReport
}

// New returns an Executor using the given collaborators.
func New(vcs VCS, manifests ManifestStore, packager Packager, publisher Publisher, opts Options) *Executor {
	if opts.MainBranch == "" {
		opts.MainBranch = releaseline.DefaultMainBranch
	}
	return &Executor{
		VCS:       vcs,
		Manifests: manifests,
		Packager:  packager,
		Publisher: publisher,
		Options:   opts,
		handled:   map[string]int{},
	}
}

// Tags returns a report for every tag handled so far, in order.
func (x *Executor) Tags() []TagReport {
	return append([]TagReport(nil), x.tags...)
}

// Packages returns a report for every package handled so far, in order.
func (x *Executor) Packages() []PackageReport {
	return append([]PackageReport(nil), x.packages...)
}

func (x *Executor) branch(l releaseline.Line) string {
	return l.Branch(x.MainBranch)
}

func (x *Executor) opt(l releaseline.Line) *printer.Options {
	return printer.NewOpt().ForLine(l.String()).DryRunIf(x.DryRun)
}

func (x *Executor) printf(ctx context.Context, l releaseline.Line, format string, args ...interface{}) {
	printer.FromContextOrDie(ctx).OptPrintf(x.opt(l), format+"\n", args...)
}

// readManifestAt reads the chart manifest recorded at ref without touching
// the working tree.
func (x *Executor) readManifestAt(ctx context.Context, ref string) (*chart.Manifest, error) {
	b, err := x.VCS.ReadFile(ctx, ref, x.Manifests.Path())
	if err != nil {
		return nil, err
	}
	return chart.ParseManifest(b)
}

func handledKey(kind, name string) string {
	return fmt.Sprintf("%s:%s", kind, name)
}
