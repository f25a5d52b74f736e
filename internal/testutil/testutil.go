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
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ChartPath is where the test repositories keep their chart.
const ChartPath = "chart"

// ChartYAML returns a minimal Chart.yaml recording version for both the
// chart and the application.
func ChartYAML(name, version string) string {
	return `apiVersion: v2
name: ` + name + `
description: A Helm chart for testing
type: application
# keep in sync with the upstream image
version: ` + version + `
appVersion: "` + version + `"
`
}

// TestGitRepo is a working copy cloned from a bare remote, both living in
// temporary directories owned by the test.
type TestGitRepo struct {
	T *testing.T

	// RemoteDir is the bare repository acting as "origin".
	RemoteDir string

	// Dir is the working copy.
	Dir string
}

// NewTestGitRepo creates a bare remote and a working copy on branch main
// whose first commit contains files, keyed by slash separated paths. The
// commit is pushed to the remote.
func NewTestGitRepo(t *testing.T, files map[string]string) *TestGitRepo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not available")
	}

	root := t.TempDir()
	g := &TestGitRepo{
		T:         t,
		RemoteDir: filepath.Join(root, "remote.git"),
		Dir:       filepath.Join(root, "work"),
	}
	run(t, root, "init", "--bare", "--initial-branch=main", g.RemoteDir)
	run(t, root, "init", "--initial-branch=main", g.Dir)
	configure(t, g.Dir)
	g.Git("remote", "add", "origin", g.RemoteDir)

	for p, content := range files {
		g.WriteFile(p, content)
	}
	g.CommitAll("initial commit")
	g.Git("push", "origin", "main")
	g.Git("fetch", "origin")
	return g
}

// Clone returns a second working copy of the remote, useful to simulate
// another writer.
func (g *TestGitRepo) Clone() *TestGitRepo {
	g.T.Helper()
	dir := filepath.Join(g.T.TempDir(), "clone")
	run(g.T, filepath.Dir(dir), "clone", g.RemoteDir, dir)
	configure(g.T, dir)
	return &TestGitRepo{T: g.T, RemoteDir: g.RemoteDir, Dir: dir}
}

// Git runs git in the working copy and returns its trimmed stdout. The test
// fails if the command does.
func (g *TestGitRepo) Git(args ...string) string {
	g.T.Helper()
	return run(g.T, g.Dir, args...)
}

// RemoteGit runs git against the bare remote.
func (g *TestGitRepo) RemoteGit(args ...string) string {
	g.T.Helper()
	return run(g.T, g.RemoteDir, args...)
}

// WriteFile writes content to the slash separated path in the working copy.
func (g *TestGitRepo) WriteFile(path, content string) {
	g.T.Helper()
	p := filepath.Join(g.Dir, filepath.FromSlash(path))
	require.NoError(g.T, os.MkdirAll(filepath.Dir(p), 0700))
	require.NoError(g.T, os.WriteFile(p, []byte(content), 0600))
}

// ReadFile returns the content of the slash separated path in the working
// copy.
func (g *TestGitRepo) ReadFile(path string) string {
	g.T.Helper()
	b, err := os.ReadFile(filepath.Join(g.Dir, filepath.FromSlash(path)))
	require.NoError(g.T, err)
	return string(b)
}

// CommitAll stages every change and commits it.
func (g *TestGitRepo) CommitAll(msg string) {
	g.T.Helper()
	g.Git("add", "--all")
	g.Git("commit", "--allow-empty", "-m", msg)
}

// CommitCount returns the number of commits reachable from ref.
func (g *TestGitRepo) CommitCount(ref string) string {
	g.T.Helper()
	return g.Git("rev-list", "--count", ref)
}

func configure(t *testing.T, dir string) {
	t.Helper()
	run(t, dir, "config", "user.email", "chartsync@example.com")
	run(t, dir, "config", "user.name", "chartsync test")
	run(t, dir, "config", "commit.gpgsign", "false")
	run(t, dir, "config", "tag.gpgsign", "false")
}

func run(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, stderr.String())
	}
	return strings.TrimSpace(stdout.String())
}
