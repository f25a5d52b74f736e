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

package testutil

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kptdev/chartsync/internal/chart"
	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/internal/types"
	"github.com/kptdev/chartsync/pkg/oci"
)

// FakeVCS is an in-memory repository with a single file, the chart manifest,
// on every branch. Mutating calls are recorded in Calls.
type FakeVCS struct {
	Remote       string
	ManifestPath string

	// Current is the checked out branch and Worktree its manifest.
	Current  string
	Worktree []byte

	Local        map[string][]byte
	RemoteHeads  map[string][]byte
	LocalTagRefs map[string]string
	RemoteTagRef map[string]string

	// RejectPush makes pushes of the named branches fail as non fast forward.
	RejectPush map[string]bool
	// RejectTag makes pushes of the named tags fail.
	RejectTag map[string]bool
	// FetchErr is returned by Fetch.
	FetchErr error

	Calls []string

	revs map[string][]byte
}

// NewFakeVCS returns a repository whose main branch records mainManifest,
// both locally and on the remote, with main checked out.
func NewFakeVCS(mainManifest string) *FakeVCS {
	f := &FakeVCS{
		Remote:       "origin",
		ManifestPath: path.Join(ChartPath, chart.ManifestFileName),
		Local:        map[string][]byte{},
		RemoteHeads:  map[string][]byte{},
		LocalTagRefs: map[string]string{},
		RemoteTagRef: map[string]string{},
		RejectPush:   map[string]bool{},
		RejectTag:    map[string]bool{},
		revs:         map[string][]byte{},
	}
	f.Local["main"] = []byte(mainManifest)
	f.RemoteHeads["main"] = []byte(mainManifest)
	f.Current = "main"
	f.Worktree = []byte(mainManifest)
	return f
}

// AddRemoteBranch adds a branch that only exists on the remote.
func (f *FakeVCS) AddRemoteBranch(branch, manifest string) {
	f.RemoteHeads[branch] = []byte(manifest)
}

// MutatingCalls returns the recorded calls starting with one of prefixes, or
// all calls when no prefix is given.
func (f *FakeVCS) MutatingCalls(prefixes ...string) []string {
	var out []string
	for _, c := range f.Calls {
		if len(prefixes) == 0 {
			out = append(out, c)
			continue
		}
		for _, p := range prefixes {
			if strings.HasPrefix(c, p+" ") {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func (f *FakeVCS) record(format string, args ...interface{}) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *FakeVCS) content(ref string) ([]byte, bool) {
	if b, found := f.revs[ref]; found {
		return b, true
	}
	if b, found := f.RemoteHeads[strings.TrimPrefix(ref, f.Remote+"/")]; found && strings.HasPrefix(ref, f.Remote+"/") {
		return b, true
	}
	b, found := f.Local[ref]
	return b, found
}

func unknownRef(op errors.Op, ref string) error {
	return errors.E(op, errors.Git, fmt.Errorf("unknown revision %q", ref))
}

func (f *FakeVCS) Fetch(context.Context) error {
	return f.FetchErr
}

func (f *FakeVCS) RemoteBranches(context.Context) ([]string, error) {
	var out []string
	for b := range f.RemoteHeads {
		out = append(out, f.Remote+"/"+b)
	}
	sort.Strings(out)
	return out, nil
}

func (f *FakeVCS) LocalBranches(context.Context) ([]string, error) {
	var out []string
	for b := range f.Local {
		out = append(out, b)
	}
	sort.Strings(out)
	return out, nil
}

func (f *FakeVCS) RemoteTags(context.Context) (map[string]string, error) {
	out := make(map[string]string, len(f.RemoteTagRef))
	for k, v := range f.RemoteTagRef {
		out[k] = v
	}
	return out, nil
}

func (f *FakeVCS) LocalTags(context.Context) ([]string, error) {
	var out []string
	for t := range f.LocalTagRefs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (f *FakeVCS) CurrentBranch(context.Context) (string, error) {
	return f.Current, nil
}

// RevParse snapshots the content of ref under a new commit id.
func (f *FakeVCS) RevParse(_ context.Context, ref string) (string, error) {
	b, found := f.content(ref)
	if !found {
		return "", unknownRef("fake.RevParse", ref)
	}
	sha := fmt.Sprintf("%040d", len(f.revs)+1)
	f.revs[sha] = append([]byte(nil), b...)
	return sha, nil
}

func (f *FakeVCS) RemoteRef(branch string) string {
	return f.Remote + "/" + branch
}

func (f *FakeVCS) ReadFile(_ context.Context, ref, p string) ([]byte, error) {
	const op errors.Op = "fake.ReadFile"
	if p != f.ManifestPath {
		return nil, errors.E(op, errors.Git, fmt.Errorf("path %q does not exist in %q", p, ref))
	}
	b, found := f.content(ref)
	if !found {
		return nil, unknownRef(op, ref)
	}
	return append([]byte(nil), b...), nil
}

func (f *FakeVCS) Checkout(_ context.Context, branch string) error {
	f.record("checkout %s", branch)
	if _, found := f.Local[branch]; !found {
		remote, found := f.RemoteHeads[branch]
		if !found {
			if rev, found := f.revs[branch]; found {
				f.Current = branch
				f.Worktree = append([]byte(nil), rev...)
				return nil
			}
			return unknownRef("fake.Checkout", branch)
		}
		f.Local[branch] = append([]byte(nil), remote...)
	}
	f.Current = branch
	f.Worktree = append([]byte(nil), f.Local[branch]...)
	return nil
}

func (f *FakeVCS) CreateBranch(ctx context.Context, branch, base string) (types.Outcome, error) {
	_, local := f.Local[branch]
	_, remote := f.RemoteHeads[branch]
	if local || remote {
		return types.Exists, f.Checkout(ctx, branch)
	}
	f.record("create-branch %s %s", branch, base)
	b, found := f.content(base)
	if !found {
		return types.NotFound, unknownRef("fake.CreateBranch", base)
	}
	f.Local[branch] = append([]byte(nil), b...)
	f.Current = branch
	f.Worktree = append([]byte(nil), b...)
	return types.OK, nil
}

func (f *FakeVCS) Commit(_ context.Context, msg string, _ ...string) (types.Outcome, error) {
	committed, found := f.Local[f.Current]
	if !found {
		return types.NotFound, errors.E(errors.Op("fake.Commit"), errors.Git, fmt.Errorf("not on a branch"))
	}
	if bytes.Equal(committed, f.Worktree) {
		return types.NoOp, nil
	}
	f.record("commit %s", msg)
	f.Local[f.Current] = append([]byte(nil), f.Worktree...)
	return types.OK, nil
}

func (f *FakeVCS) Push(_ context.Context, branch string) (types.Outcome, error) {
	f.record("push %s", branch)
	b, found := f.Local[branch]
	if !found {
		return types.NotFound, unknownRef("fake.Push", branch)
	}
	if f.RejectPush[branch] {
		return types.Rejected, nil
	}
	f.RemoteHeads[branch] = append([]byte(nil), b...)
	return types.OK, nil
}

func (f *FakeVCS) CreateTag(_ context.Context, name, ref string) (types.Outcome, error) {
	if _, found := f.LocalTagRefs[name]; found {
		return types.Exists, nil
	}
	if _, found := f.content(ref); !found {
		return types.NotFound, unknownRef("fake.CreateTag", ref)
	}
	f.record("tag %s %s", name, ref)
	f.LocalTagRefs[name] = ref
	return types.OK, nil
}

func (f *FakeVCS) PushTag(_ context.Context, name string) (types.Outcome, error) {
	f.record("push-tag %s", name)
	if f.RejectTag[name] {
		return types.Rejected, nil
	}
	if _, found := f.RemoteTagRef[name]; found {
		return types.Exists, nil
	}
	ref, found := f.LocalTagRefs[name]
	if !found {
		return types.NotFound, unknownRef("fake.PushTag", name)
	}
	f.RemoteTagRef[name] = ref
	return types.OK, nil
}

// FakeStore reads and writes the working tree manifest of a FakeVCS and
// packages it.
type FakeStore struct {
	VCS *FakeVCS
	// Archives maps every archive produced by Package to the manifest it
	// was built from.
	Archives map[string]*chart.Manifest
}

// NewFakeStore returns a store backed by vcs.
func NewFakeStore(vcs *FakeVCS) *FakeStore {
	return &FakeStore{VCS: vcs, Archives: map[string]*chart.Manifest{}}
}

func (s *FakeStore) Read(context.Context) (*chart.Manifest, error) {
	return chart.ParseManifest(s.VCS.Worktree)
}

func (s *FakeStore) Write(_ context.Context, m *chart.Manifest) error {
	b, err := m.Bytes()
	if err != nil {
		return err
	}
	s.VCS.Worktree = b
	return nil
}

func (s *FakeStore) Path() string {
	return s.VCS.ManifestPath
}

func (s *FakeStore) Package(_ context.Context, destDir string) (string, error) {
	m, err := chart.ParseManifest(s.VCS.Worktree)
	if err != nil {
		return "", err
	}
	archive := filepath.Join(destDir, fmt.Sprintf("%s-%s.tgz", m.Name(), m.Version()))
	s.VCS.record("package %s", filepath.Base(archive))
	s.Archives[archive] = m
	return archive, nil
}

// FakePublisher is an in-memory registry for archives made by a FakeStore.
type FakePublisher struct {
	Store *FakeStore
	// Stored holds the published "name:version" pairs.
	Stored map[string]bool
	// Err is returned by every call when set.
	Err   error
	Calls []string
}

// NewFakePublisher returns an empty registry for archives made by store.
func NewFakePublisher(store *FakeStore) *FakePublisher {
	return &FakePublisher{Store: store, Stored: map[string]bool{}}
}

func (p *FakePublisher) Exists(_ context.Context, _, chartName, version string) (bool, error) {
	if p.Err != nil {
		return false, p.Err
	}
	return p.Stored[chartName+":"+version], nil
}

func (p *FakePublisher) Push(_ context.Context, archivePath, registryURL string) (types.Outcome, string, error) {
	if p.Err != nil {
		return types.NotFound, "", p.Err
	}
	m, found := p.Store.Archives[archivePath]
	if !found {
		return types.NotFound, "", errors.E(errors.Op("fake.Push"), errors.IO, fmt.Errorf("no archive %s", archivePath))
	}
	ref := oci.ChartReference(registryURL, m.Name(), m.Version()).String()
	key := m.Name() + ":" + m.Version()
	if p.Stored[key] {
		return types.Exists, ref, nil
	}
	p.Calls = append(p.Calls, "push "+ref)
	p.Stored[key] = true
	return types.OK, ref, nil
}
