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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kptdev/chartsync/internal/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(Image, "", "")
	fs.String(ChartPath, "chart", "")
	fs.String(RepoDir, ".", "")
	fs.Bool(DryRun, false, "")
	fs.Int(PageSize, 100, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, &Config{
		ChartPath:      "chart",
		ManageBranches: true,
		ManageTags:     true,
		ManageOCI:      true,
		Remote:         "origin",
		MainBranch:     "main",
		RepoDir:        ".",
		TagSource:      "auto",
		PageSize:       100,
		Output:         "table",
	}, cfg)
}

func TestLoad_precedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(`
image: file/image
chart-path: charts/demo
page-size: 10
oci-registry: ghcr.io
oci-repo: acme/charts
manage-tags: false
`), 0600))
	t.Setenv("CHARTSYNC_CHART_PATH", "env/chart")
	t.Setenv("CHARTSYNC_MAIN_BRANCH", "trunk")

	cfg, err := Load(flagSet(t, "--repo-dir", dir, "--image", "flag/image", "--dry-run"), "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, DefaultFileName), cfg.File)
	// flag over file
	assert.Equal(t, "flag/image", cfg.Image)
	assert.True(t, cfg.DryRun)
	// env over file
	assert.Equal(t, "env/chart", cfg.ChartPath)
	assert.Equal(t, "trunk", cfg.MainBranch)
	// file over flag defaults
	assert.Equal(t, 10, cfg.PageSize)
	assert.False(t, cfg.ManageTags)
	assert.Equal(t, "ghcr.io/acme/charts", cfg.RegistryURL())
	// defaults
	assert.True(t, cfg.ManageBranches)
	assert.Equal(t, "origin", cfg.Remote)
}

func TestLoad_explicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	file := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(file, []byte("image: nginx\ntag-source: hub\n"), 0600))

	cfg, err := Load(nil, file)
	require.NoError(t, err)
	assert.Equal(t, "nginx", cfg.Image)
	assert.Equal(t, "hub", cfg.TagSource)

	_, err = Load(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.InvalidParam))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Image:       "nginx",
			ChartPath:   "chart",
			OCIRegistry: "ghcr.io",
			OCIRepo:     "acme/charts",
			ManageOCI:   true,
			Remote:      "origin",
			MainBranch:  "main",
			TagSource:   "auto",
			PageSize:    100,
		}
	}
	testCases := map[string]struct {
		mutate func(*Config)
		kind   errors.Kind
	}{
		"valid": {
			mutate: func(*Config) {},
		},
		"missing image": {
			mutate: func(c *Config) { c.Image = "" },
			kind:   errors.MissingParam,
		},
		"absolute chart path": {
			mutate: func(c *Config) { c.ChartPath = "/abs/chart" },
			kind:   errors.InvalidParam,
		},
		"oci without registry": {
			mutate: func(c *Config) { c.OCIRegistry = "" },
			kind:   errors.MissingParam,
		},
		"registry not needed without oci": {
			mutate: func(c *Config) { c.ManageOCI, c.OCIRegistry, c.OCIRepo = false, "", "" },
		},
		"unknown tag source": {
			mutate: func(c *Config) { c.TagSource = "quay" },
			kind:   errors.InvalidParam,
		},
		"zero page size": {
			mutate: func(c *Config) { c.PageSize = 0 },
			kind:   errors.InvalidParam,
		},
	}
	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			if tc.kind == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.kind, errors.KindOf(err))
		})
	}
}

func TestRegistryURL(t *testing.T) {
	testCases := map[string]struct {
		registry, repo, expected string
	}{
		"plain":         {"ghcr.io", "acme/charts", "ghcr.io/acme/charts"},
		"slashes":       {"oci://ghcr.io/", "/acme/charts/", "ghcr.io/acme/charts"},
		"registry only": {"registry.example.com:5000", "", "registry.example.com:5000"},
	}
	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			c := &Config{OCIRegistry: tc.registry, OCIRepo: tc.repo}
			assert.Equal(t, tc.expected, c.RegistryURL())
		})
	}
}
