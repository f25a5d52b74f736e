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

package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/registry"
	"github.com/kptdev/chartsync/internal/chart"
	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/internal/gitutil"
	"github.com/kptdev/chartsync/internal/testutil"
	"github.com/kptdev/chartsync/pkg/oci"
	"github.com/kptdev/chartsync/pkg/plan"
	"github.com/kptdev/chartsync/pkg/printer/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLister struct {
	tags []string
	err  error
}

func (l staticLister) ListTags(context.Context, string, int) ([]string, error) {
	return l.tags, l.err
}

func manifest(version string) string {
	return testutil.ChartYAML("demo", version)
}

func fakeCommand(vcs *testutil.FakeVCS, tags ...string) (Command, *testutil.FakePublisher) {
	store := testutil.NewFakeStore(vcs)
	pub := testutil.NewFakePublisher(store)
	return Command{
		VCS:            vcs,
		Manifests:      store,
		Packager:       store,
		Publisher:      pub,
		Lister:         staticLister{tags: tags},
		Image:          "acme/demo",
		Remote:         "origin",
		MainBranch:     "main",
		ManageBranches: true,
		ManageTags:     true,
		ManageOCI:      true,
		RegistryURL:    "registry.example.com/charts",
		ArchiveDir:     "archives",
	}, pub
}

type row struct {
	Line, Action, From, To string
}

func lineRows(s *Summary) []row {
	var out []row
	for _, l := range s.Lines {
		out = append(out, row{l.Line.String(), l.Action.String(), l.From.String(), l.To.String()})
	}
	return out
}

func TestRun_dryRun(t *testing.T) {
	ctx := fake.CtxWithDefaultPrinter()
	vcs := testutil.NewFakeVCS(manifest("1.0.0"))
	c, pub := fakeCommand(vcs, "1.0.1", "1.1.0")
	c.DryRun = true

	s, err := c.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []row{
		{"main", "PatchOrMinorUpdate", "1.0.0", "1.1.0"},
		{"v1.0", "NewLineCreation", "", "1.0.1"},
	}, lineRows(s))
	assert.Empty(t, vcs.Calls)
	assert.Empty(t, pub.Calls)
	assert.Equal(t, 0, s.ExitStatus)
	assert.True(t, s.DryRun)
	require.Len(t, s.Tags, 2)
	assert.Equal(t, "v1.1.0", s.Tags[0].Tag)
	assert.Equal(t, "v1.0/1.0.1", s.Tags[1].Tag)
	require.Len(t, s.Packages, 2)
}

func TestRun_applies(t *testing.T) {
	ctx := fake.CtxWithDefaultPrinter()
	vcs := testutil.NewFakeVCS(manifest("2.1.0"))
	vcs.AddRemoteBranch("v1.9", manifest("1.9.0"))
	c, pub := fakeCommand(vcs, "1.9.0", "1.9.4", "2.1.0", "2.2.0")

	s, err := c.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []row{
		{"main", "PatchOrMinorUpdate", "2.1.0", "2.2.0"},
		{"v2.1", "NewLineCreation", "", "2.1.0"},
		{"v1.9", "PatchOrMinorUpdate", "1.9.0", "1.9.4"},
	}, lineRows(s))
	assert.Equal(t, 0, s.ExitStatus, s.Errors)
	for _, l := range s.Lines {
		assert.True(t, l.Applied, l.Line.String())
	}
	assert.Equal(t, map[string]string{
		"v2.2.0":     "origin/main",
		"v2.1/2.1.0": "origin/v2.1",
		"v1.9/1.9.4": "origin/v1.9",
	}, vcs.RemoteTagRef)
	assert.Len(t, pub.Calls, 3)
	// The run ends on the branch it started from.
	assert.Equal(t, "main", vcs.Current)

	// A second run changes nothing.
	calls := len(vcs.MutatingCalls("commit", "push", "tag", "push-tag", "create-branch", "package"))
	s, err = c.Run(ctx)
	require.NoError(t, err)
	for _, l := range s.Lines {
		assert.Equal(t, plan.NoOp, l.Action, l.Line.String())
	}
	assert.Len(t, vcs.MutatingCalls("commit", "push", "tag", "push-tag", "create-branch", "package"), calls)
	assert.Len(t, pub.Calls, 3)
	assert.Equal(t, 0, s.ExitStatus, s.Errors)
}

func TestRun_listerFailure(t *testing.T) {
	ctx := fake.CtxWithDefaultPrinter()
	vcs := testutil.NewFakeVCS(manifest("1.0.0"))
	c, _ := fakeCommand(vcs)
	c.Lister = staticLister{err: fmt.Errorf("rate limited")}

	s, err := c.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.External))
	require.NotNil(t, s)
	assert.Equal(t, 1, s.ExitStatus)
	assert.Empty(t, vcs.Calls)
}

func TestRun_emptyCatalog(t *testing.T) {
	ctx := fake.CtxWithDefaultPrinter()
	vcs := testutil.NewFakeVCS(manifest("1.0.0"))
	c, _ := fakeCommand(vcs, "latest", "stable")
	c.ManageTags, c.ManageOCI = false, false

	s, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s.ExitStatus)
	assert.Equal(t, []row{{"main", "NoOp", "1.0.0", "1.0.0"}}, lineRows(s))
	assert.Contains(t, s.Warnings[0], "no valid semantic versions found")
}

func TestRun_fetchFailureContinues(t *testing.T) {
	ctx := fake.CtxWithDefaultPrinter()
	vcs := testutil.NewFakeVCS(manifest("1.0.0"))
	vcs.FetchErr = fmt.Errorf("network unreachable")
	c, _ := fakeCommand(vcs, "1.0.1")

	s, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s.ExitStatus)
	assert.Contains(t, s.Warnings, "fetch failed: network unreachable")
	assert.True(t, s.Lines[0].Applied)
}

func TestRun_stepFailureSetsExitStatus(t *testing.T) {
	ctx := fake.CtxWithDefaultPrinter()
	vcs := testutil.NewFakeVCS(manifest("1.0.0"))
	vcs.RejectPush["main"] = true
	c, _ := fakeCommand(vcs, "1.0.1")

	s, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.ExitStatus)
	assert.True(t, errors.Is(s.Lines[0].Err, errors.Conflict))
	assert.Empty(t, s.Errors)
}

// panickingVCS panics whenever remote tags are listed.
type panickingVCS struct {
	*testutil.FakeVCS
}

func (panickingVCS) RemoteTags(context.Context) (map[string]string, error) {
	panic("boom")
}

func TestRun_recoversFromPanic(t *testing.T) {
	ctx := fake.CtxWithDefaultPrinter()
	vcs := testutil.NewFakeVCS(manifest("1.0.0"))
	c, _ := fakeCommand(vcs, "1.0.1")
	c.ManageOCI = false
	c.VCS = panickingVCS{vcs}

	s, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.ExitStatus)
	require.NotEmpty(t, s.Errors)
	assert.Contains(t, s.Errors[0], "panic: boom")
	assert.True(t, errors.Is(s.Err(), errors.Internal))
	assert.Equal(t, "main", vcs.Current)
}

func TestSummary_Print(t *testing.T) {
	ctx := fake.CtxWithDefaultPrinter()
	vcs := testutil.NewFakeVCS(manifest("1.0.0"))
	c, _ := fakeCommand(vcs, "1.0.1")
	c.DryRun = true
	s, err := c.Run(ctx)
	require.NoError(t, err)

	testCases := map[string]struct {
		output   string
		contains []string
	}{
		"table": {
			output:   OutputTable,
			contains: []string{"LINE", "PatchOrMinorUpdate", "v1.0.1", "dry run"},
		},
		"yaml": {
			output:   OutputYAML,
			contains: []string{"image: acme/demo", "action: PatchOrMinorUpdate", "exitStatus: 0"},
		},
	}
	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, s.Print(&out, tc.output))
			for _, c := range tc.contains {
				assert.Contains(t, out.String(), c)
			}
		})
	}

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, s.Print(&out, OutputJSON))
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, "acme/demo", got["image"])
		lines := got["lines"].([]interface{})
		require.Len(t, lines, 1)
		assert.Equal(t, "main", lines[0].(map[string]interface{})["line"])
		assert.Equal(t, "1.0.1", lines[0].(map[string]interface{})["to"])
	})

	t.Run("unknown", func(t *testing.T) {
		err := s.Print(&bytes.Buffer{}, "xml")
		assert.True(t, errors.Is(err, errors.InvalidParam))
	})
}

// TestRun_gitAndRegistry runs against a real git remote and an in-memory
// OCI registry.
func TestRun_gitAndRegistry(t *testing.T) {
	ctx := fake.CtxWithDefaultPrinter()
	g := testutil.NewTestGitRepo(t, map[string]string{
		testutil.ChartPath + "/Chart.yaml":  manifest("1.4.0"),
		testutil.ChartPath + "/values.yaml": "replicas: 1\n",
	})
	repo, err := gitutil.NewRepo(g.Dir, gitutil.DefaultRemote)
	require.NoError(t, err)

	srv := httptest.NewServer(registry.New())
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	registryURL := u.Host + "/charts"
	pusher := oci.NewChartPusher(oci.WithKeychain(authn.DefaultKeychain), oci.WithInsecure(true))

	store := &chart.FileStore{Root: g.Dir, ChartPath: testutil.ChartPath}
	c := Command{
		VCS:            repo,
		Manifests:      store,
		Packager:       store,
		Publisher:      pusher,
		Lister:         staticLister{tags: []string{"1.4.0", "1.4.3", "2.0.0", "latest"}},
		Image:          "acme/demo",
		Remote:         gitutil.DefaultRemote,
		MainBranch:     "main",
		ManageBranches: true,
		ManageTags:     true,
		ManageOCI:      true,
		RegistryURL:    registryURL,
		ArchiveDir:     t.TempDir(),
	}

	s, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s.ExitStatus, s.Errors)
	assert.Equal(t, []row{
		{"main", "PatchOrMinorUpdate", "1.4.0", "2.0.0"},
		{"v1.4", "NewLineCreation", "", "1.4.3"},
	}, lineRows(s))

	assert.Equal(t, "main", g.Git("rev-parse", "--abbrev-ref", "HEAD"))
	assert.Contains(t, g.RemoteGit("show", "main:chart/Chart.yaml"), `appVersion: "2.0.0"`)
	assert.Contains(t, g.RemoteGit("show", "v1.4:chart/Chart.yaml"), `appVersion: "1.4.3"`)
	// The comment in the manifest survives the update.
	assert.Contains(t, g.RemoteGit("show", "main:chart/Chart.yaml"), "# keep in sync with the upstream image")
	assert.Equal(t, "v1.4/1.4.3\nv2.0.0", g.RemoteGit("tag", "--list"))
	// Two commits on top of the initial one, one per field.
	assert.Equal(t, "3", g.RemoteGit("rev-list", "--count", "main"))

	for _, version := range []string{"2.0.0", "1.4.3"} {
		found, err := pusher.Exists(ctx, registryURL, "demo", version)
		require.NoError(t, err)
		assert.True(t, found, version)
	}

	// Running again is a no-op.
	s, err = c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s.ExitStatus, s.Errors)
	for _, l := range s.Lines {
		assert.Equal(t, plan.NoOp, l.Action, l.Line.String())
		assert.Zero(t, l.Commits)
	}
	assert.Equal(t, "3", g.RemoteGit("rev-list", "--count", "main"))
}
