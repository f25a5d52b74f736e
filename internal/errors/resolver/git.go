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

package resolver

import (
	"strings"

	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/internal/gitutil"
)

//nolint:gochecknoinits
func init() {
	AddErrorResolver(&gitExecErrorResolver{})
}

const (
	noGitBinaryMsg = `
Error: No git executable found. chartsync requires git to be installed and available in the path.
`

	notARepositoryMsg = `
Error: {{ printf "%q" .repo }} is not a git repository. Use --repo-dir to point chartsync at the chart repository.

{{- template "ExecOutputDetails" . }}
`

	unknownRefMsg = `
Error: Unknown ref {{ printf "%q" .ref }}. Please verify that the reference exists in repository {{ printf "%q" .repo }}.

{{- template "ExecOutputDetails" . }}
`

	pathNotFoundMsg = `
Error: The chart manifest was not found at {{ printf "%q" .ref }}. Please verify the --chart-path flag.

{{- template "ExecOutputDetails" . }}
`

	httpsAuthRequired = `
Error: Repository {{ printf "%q" .repo }} requires authentication. Configure a git credential helper or use an ssh remote.

{{- template "ExecOutputDetails" . }}
`

	repositoryUnavailable = `
Error: Unable to access repository {{ printf "%q" .repo }}.

{{- template "ExecOutputDetails" . }}
`

	repositoryNotFound = `
Error: Repository {{ printf "%q" .repo }} not found.

{{- template "ExecOutputDetails" . }}
`

	pushRejectedMsg = `
Error: The remote rejected the push from {{ printf "%q" .repo }}. Another writer updated the branch or tag. {{ template "RerunHint" }}

{{- template "ExecOutputDetails" . }}
`

	refAlreadyExistsMsg = `
Error: A ref created by {{ printf "%q" .command }} already exists in {{ printf "%q" .repo }}.

{{- template "ExecOutputDetails" . }}
`

	unknownGitExecError = `
Error: Failed to execute git command {{ printf "%q" .command }}
{{- if gt (len .repo) 0 -}}
{{ printf " in repo %q" .repo }}
{{- end }}
{{- if gt (len .ref) 0 -}}
{{ printf " for reference %q" .ref }}
{{- end }}

{{- template "ExecOutputDetails" . }}
`
)

// gitExecErrorResolver is an implementation of the ErrorResolver interface
// that can produce error messages for errors of the gitutil.GitExecError type.
type gitExecErrorResolver struct{}

func (*gitExecErrorResolver) Resolve(err error) (ResolvedResult, bool) {
	var gitExecErr *gitutil.GitExecError
	if !errors.As(err, &gitExecErr) {
		return ResolvedResult{}, false
	}
	fullCommand := strings.TrimSpace("git " + gitExecErr.Command + " " + strings.Join(gitExecErr.Args, " "))
	tmplArgs := map[string]interface{}{
		"command": fullCommand,
		"repo":    gitExecErr.Repo,
		"ref":     gitExecErr.Ref,
		"stdout":  gitExecErr.StdOut,
		"stderr":  gitExecErr.StdErr,
	}

	var msg string
	switch gitExecErr.Type {
	case gitutil.GitExecutableNotFound:
		msg = ExecuteTemplate(noGitBinaryMsg, tmplArgs)
	case gitutil.NotARepository:
		msg = ExecuteTemplate(notARepositoryMsg, tmplArgs)
	case gitutil.UnknownReference:
		msg = ExecuteTemplate(unknownRefMsg, tmplArgs)
	case gitutil.PathNotFound:
		msg = ExecuteTemplate(pathNotFoundMsg, tmplArgs)
	case gitutil.HTTPSAuthRequired:
		msg = ExecuteTemplate(httpsAuthRequired, tmplArgs)
	case gitutil.RepositoryUnavailable:
		msg = ExecuteTemplate(repositoryUnavailable, tmplArgs)
	case gitutil.RepositoryNotFound:
		msg = ExecuteTemplate(repositoryNotFound, tmplArgs)
	case gitutil.PushRejected:
		msg = ExecuteTemplate(pushRejectedMsg, tmplArgs)
	case gitutil.RefAlreadyExists:
		msg = ExecuteTemplate(refAlreadyExistsMsg, tmplArgs)
	default:
		msg = ExecuteTemplate(unknownGitExecError, tmplArgs)
	}
	return ResolvedResult{
		Message: msg,
	}, true
}
