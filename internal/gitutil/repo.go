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

package gitutil

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/internal/types"
	"k8s.io/klog/v2"
)

// DefaultRemote is the remote branches and tags are fetched from and pushed
// to unless configured otherwise.
const DefaultRemote = "origin"

// Repo is a local working copy with a single remote. All operations report
// expected outcomes such as a rejected push or an existing tag through
// types.Outcome; errors are reserved for everything else.
type Repo struct {
	runner *GitLocalRunner
	// Remote is the name of the remote the repo syncs with.
	Remote string
}

// NewRepo returns a Repo for the working copy in dir.
func NewRepo(dir, remote string) (*Repo, error) {
	const op errors.Op = "gitutil.NewRepo"
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.E(op, errors.IO, err)
	}
	runner, err := NewLocalGitRunner(abs)
	if err != nil {
		return nil, errors.E(op, errors.Repo(abs), err)
	}
	if remote == "" {
		remote = DefaultRemote
	}
	return &Repo{runner: runner, Remote: remote}, nil
}

// Dir returns the root directory of the working copy.
func (r *Repo) Dir() string {
	return r.runner.Dir
}

// Fetch updates the remote-tracking branches and tags.
func (r *Repo) Fetch(ctx context.Context) error {
	const op errors.Op = "gitutil.Fetch"
	if _, err := r.runner.Run(ctx, "fetch", "--prune", "--tags", r.Remote); err != nil {
		return errors.E(op, errors.Repo(r.Remote), err)
	}
	return nil
}

// RemoteBranches returns the remote-tracking branch names, prefixed with the
// remote name ("origin/v1.2").
func (r *Repo) RemoteBranches(ctx context.Context) ([]string, error) {
	const op errors.Op = "gitutil.RemoteBranches"
	rr, err := r.runner.Run(ctx, "for-each-ref", "--format=%(refname:short)", "refs/remotes/"+r.Remote)
	if err != nil {
		return nil, errors.E(op, errors.Repo(r.Remote), err)
	}
	var out []string
	for _, b := range lines(rr.Stdout) {
		// The symbolic HEAD of the remote is not a branch.
		if b == r.Remote || b == r.Remote+"/HEAD" {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// LocalBranches returns the names of the local branches.
func (r *Repo) LocalBranches(ctx context.Context) ([]string, error) {
	const op errors.Op = "gitutil.LocalBranches"
	rr, err := r.runner.Run(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if err != nil {
		return nil, errors.E(op, err)
	}
	return lines(rr.Stdout), nil
}

var lsRemoteTagRe = regexp.MustCompile(`^([a-z0-9]+)\s+refs/tags/(.+)$`)

// RemoteTags lists the tags on the remote and the objects they reference.
// Unlike the local tag list it reflects tags pushed by other writers since
// the last fetch.
func (r *Repo) RemoteTags(ctx context.Context) (map[string]string, error) {
	const op errors.Op = "gitutil.RemoteTags"
	rr, err := r.runner.Run(ctx, "ls-remote", "--tags", "--refs", r.Remote)
	if err != nil {
		return nil, errors.E(op, errors.Repo(r.Remote), err)
	}

	tags := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewBufferString(rr.Stdout))
	for scanner.Scan() {
		res := lsRemoteTagRe.FindStringSubmatch(scanner.Text())
		if len(res) == 0 {
			continue
		}
		tags[res[2]] = res[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(op, errors.Repo(r.Remote), errors.Git,
			fmt.Errorf("error parsing response from git: %w", err))
	}
	return tags, nil
}

// LocalTags returns the names of the local tags.
func (r *Repo) LocalTags(ctx context.Context) ([]string, error) {
	const op errors.Op = "gitutil.LocalTags"
	rr, err := r.runner.Run(ctx, "tag", "--list")
	if err != nil {
		return nil, errors.E(op, err)
	}
	return lines(rr.Stdout), nil
}

// CurrentBranch returns the checked out branch, or the commit SHA when HEAD
// is detached. Either can be passed to Checkout to return to it.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	const op errors.Op = "gitutil.CurrentBranch"
	rr, err := r.runner.Run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", errors.E(op, err)
	}
	name := strings.TrimSpace(rr.Stdout)
	if name != "HEAD" {
		return name, nil
	}
	return r.RevParse(ctx, "HEAD")
}

// RevParse resolves ref to a commit SHA.
func (r *Repo) RevParse(ctx context.Context, ref string) (string, error) {
	const op errors.Op = "gitutil.RevParse"
	rr, err := r.runner.Run(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		AmendGitExecError(err, func(e *GitExecError) {
			e.Ref = ref
			if e.Type == Unknown {
				e.Type = UnknownReference
			}
		})
		return "", errors.E(op, err)
	}
	return strings.TrimSpace(rr.Stdout), nil
}

// HasRef reports whether ref resolves to a commit.
func (r *Repo) HasRef(ctx context.Context, ref string) bool {
	_, err := r.RevParse(ctx, ref)
	return err == nil
}

// RemoteRef returns the remote-tracking ref of branch.
func (r *Repo) RemoteRef(branch string) string {
	return r.Remote + "/" + branch
}

// ReadFile returns the content of path, relative to the repository root, as
// recorded at ref. The working tree is not touched.
func (r *Repo) ReadFile(ctx context.Context, ref, path string) ([]byte, error) {
	const op errors.Op = "gitutil.ReadFile"
	rr, err := r.runner.Run(ctx, "show", fmt.Sprintf("%s:./%s", ref, filepath.ToSlash(filepath.Clean(path))))
	if err != nil {
		AmendGitExecError(err, func(e *GitExecError) { e.Ref = ref })
		return nil, errors.E(op, err)
	}
	return []byte(rr.Stdout), nil
}

// Checkout switches to branch. A branch that only exists on the remote is
// created tracking it; a local branch behind its remote counterpart is fast
// forwarded when possible. ref may also be a commit SHA, as returned by
// CurrentBranch for a detached HEAD.
func (r *Repo) Checkout(ctx context.Context, branch string) error {
	const op errors.Op = "gitutil.Checkout"
	remoteRef := r.RemoteRef(branch)

	if !r.HasRef(ctx, "refs/heads/"+branch) && r.HasRef(ctx, "refs/remotes/"+remoteRef) {
		if _, err := r.runner.Run(ctx, "checkout", "-b", branch, "--track", remoteRef); err != nil {
			return errors.E(op, err)
		}
		return nil
	}

	if _, err := r.runner.Run(ctx, "checkout", branch); err != nil {
		AmendGitExecError(err, func(e *GitExecError) { e.Ref = branch })
		return errors.E(op, err)
	}
	if r.HasRef(ctx, "refs/remotes/"+remoteRef) {
		if _, err := r.runner.Run(ctx, "merge", "--ff-only", remoteRef); err != nil {
			// A diverged local branch is pushed as is and the push decides.
			klog.Warningf("unable to fast-forward %s to %s: %v", branch, remoteRef, err)
		}
	}
	return nil
}

// CreateBranch creates branch at base and checks it out. If the branch
// already exists, locally or on the remote, it is checked out instead and
// types.Exists is returned.
func (r *Repo) CreateBranch(ctx context.Context, branch, base string) (types.Outcome, error) {
	const op errors.Op = "gitutil.CreateBranch"
	if r.HasRef(ctx, "refs/heads/"+branch) || r.HasRef(ctx, "refs/remotes/"+r.RemoteRef(branch)) {
		if err := r.Checkout(ctx, branch); err != nil {
			return types.Exists, errors.E(op, err)
		}
		return types.Exists, nil
	}
	if _, err := r.runner.Run(ctx, "checkout", "-b", branch, base); err != nil {
		AmendGitExecError(err, func(e *GitExecError) { e.Ref = base })
		return types.NotFound, errors.E(op, err)
	}
	return types.OK, nil
}

// Commit stages paths and commits them with msg. If staging leaves nothing
// to commit, no commit is made and types.NoOp is returned.
func (r *Repo) Commit(ctx context.Context, msg string, paths ...string) (types.Outcome, error) {
	const op errors.Op = "gitutil.Commit"
	args := append([]string{"--"}, paths...)
	if _, err := r.runner.Run(ctx, "add", args...); err != nil {
		return types.NoOp, errors.E(op, err)
	}
	// --quiet exits with 1 when the index differs from HEAD.
	if _, err := r.runner.Run(ctx, "diff", "--cached", "--quiet", "--exit-code"); err == nil {
		return types.NoOp, nil
	}
	if _, err := r.runner.Run(ctx, "commit", "-m", msg); err != nil {
		return types.NoOp, errors.E(op, err)
	}
	return types.OK, nil
}

// Push pushes branch to the same name on the remote. A push the remote
// refuses, such as a non fast-forward update, returns types.Rejected.
func (r *Repo) Push(ctx context.Context, branch string) (types.Outcome, error) {
	const op errors.Op = "gitutil.Push"
	refspec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)
	_, err := r.runner.Run(ctx, "push", r.Remote, refspec)
	switch {
	case err == nil:
		return types.OK, nil
	case IsGitExecErrorType(err, PushRejected):
		klog.V(3).Infof("push of %s rejected: %v", branch, err)
		return types.Rejected, nil
	}
	return types.Rejected, errors.E(op, errors.Repo(r.Remote), err)
}

// CreateTag creates a lightweight tag named name at ref. An existing local
// tag is left alone and reported as types.Exists.
func (r *Repo) CreateTag(ctx context.Context, name, ref string) (types.Outcome, error) {
	const op errors.Op = "gitutil.CreateTag"
	if r.HasRef(ctx, "refs/tags/"+name) {
		return types.Exists, nil
	}
	_, err := r.runner.Run(ctx, "tag", name, ref)
	switch {
	case err == nil:
		return types.OK, nil
	case IsGitExecErrorType(err, RefAlreadyExists):
		return types.Exists, nil
	}
	AmendGitExecError(err, func(e *GitExecError) { e.Ref = ref })
	return types.NotFound, errors.E(op, err)
}

// PushTag pushes the tag name to the remote. A tag already present on the
// remote is reported as types.Exists, any other refusal as types.Rejected.
func (r *Repo) PushTag(ctx context.Context, name string) (types.Outcome, error) {
	const op errors.Op = "gitutil.PushTag"
	refspec := fmt.Sprintf("refs/tags/%s:refs/tags/%s", name, name)
	_, err := r.runner.Run(ctx, "push", r.Remote, refspec)
	switch {
	case err == nil:
		return types.OK, nil
	case IsGitExecErrorType(err, RefAlreadyExists):
		return types.Exists, nil
	case IsGitExecErrorType(err, PushRejected):
		klog.V(3).Infof("push of tag %s rejected: %v", name, err)
		return types.Rejected, nil
	}
	return types.Rejected, errors.E(op, errors.Repo(r.Remote), err)
}
