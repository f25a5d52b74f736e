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
	"regexp"
	"strings"

	"github.com/kptdev/chartsync/internal/errors"
)

type GitExecErrorType int

const (
	Unknown GitExecErrorType = iota
	GitExecutableNotFound
	UnknownReference
	HTTPSAuthRequired
	RepositoryNotFound
	RepositoryUnavailable
	NotARepository
	PushRejected
	RefAlreadyExists
	PathNotFound
)

// GitExecError is returned when a git command exits with an error. Type is
// derived from the command's stderr.
type GitExecError struct {
	Type    GitExecErrorType
	Args    []string
	Err     error
	Command string
	Repo    string
	Ref     string
	StdErr  string
	StdOut  string
}

func (e *GitExecError) Error() string {
	b := new(strings.Builder)
	b.WriteString(e.Err.Error())
	b.WriteString(": ")
	b.WriteString(e.StdErr)
	return b.String()
}

func AmendGitExecError(err error, f func(e *GitExecError)) {
	var gitExecErr *GitExecError
	if errors.As(err, &gitExecErr) {
		f(gitExecErr)
	}
}

// IsGitExecErrorType reports whether err wraps a GitExecError of type t.
func IsGitExecErrorType(err error, t GitExecErrorType) bool {
	var gitExecErr *GitExecError
	return errors.As(err, &gitExecErr) && gitExecErr.Type == t
}

func determineErrorType(stdErr string) GitExecErrorType {
	switch {
	case strings.Contains(stdErr, "unknown revision or path not in the working tree"),
		strings.Contains(stdErr, "invalid object name"),
		strings.Contains(stdErr, "did not match any file(s) known to git"),
		strings.Contains(stdErr, "Needed a single revision"):
		return UnknownReference
	case matches(`path '.*' does not exist in '.*'`, stdErr),
		matches(`path '.*' exists on disk, but not in '.*'`, stdErr):
		return PathNotFound
	case strings.Contains(stdErr, "could not read Username"):
		return HTTPSAuthRequired
	case strings.Contains(stdErr, "Could not resolve host"):
		return RepositoryUnavailable
	case strings.Contains(stdErr, "not a git repository"):
		return NotARepository
	case matches(`fatal: repository '.*' not found`, stdErr),
		strings.Contains(stdErr, "does not appear to be a git repository"):
		return RepositoryNotFound
	case strings.Contains(stdErr, "already exists"):
		return RefAlreadyExists
	case strings.Contains(stdErr, "[rejected]"),
		strings.Contains(stdErr, "[remote rejected]"),
		strings.Contains(stdErr, "non-fast-forward"),
		strings.Contains(stdErr, "failed to push some refs"):
		return PushRejected
	}
	return Unknown
}

func matches(pattern, s string) bool {
	matched, err := regexp.Match(pattern, []byte(s))
	if err != nil {
		// This should only return an error if the pattern is invalid, so
		// we just panic if that happens.
		panic(err)
	}
	return matched
}
