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
	"github.com/kptdev/chartsync/internal/errors"
)

//nolint:gochecknoinits
func init() {
	AddErrorResolver(&reconcileErrorResolver{})
}

const (
	invalidParamMsg = `
Error: Invalid configuration.

{{- template "NestedErrDetails" . }}
`

	missingParamMsg = `
Error: Missing required configuration.

{{- template "NestedErrDetails" . }}
`

	upstreamMsg = `
Error: Unable to list the versions of {{ printf "%q" .repo }}.

{{- template "NestedErrDetails" . }}
`

	catalogEmptyMsg = `
Error: No semantic version tags found for {{ printf "%q" .repo }}.
`

	conflictMsg = `
Error: The remote changed while reconciling
{{- if gt (len .line) 0 -}}
{{ printf " line %s" .line }}
{{- end }}. {{ template "RerunHint" }}

{{- template "NestedErrDetails" . }}
`

	internalMsg = `
Error: Internal error. Please report this at https://github.com/kptdev/chartsync/issues.

{{- template "NestedErrDetails" . }}
`
)

// reconcileErrorResolver is an implementation of the ErrorResolver interface
// that produces messages for errors.Error values by their kind. It is the
// last resolver registered, so more specific resolvers take precedence.
type reconcileErrorResolver struct{}

func (*reconcileErrorResolver) Resolve(err error) (ResolvedResult, bool) {
	var e *errors.Error
	if !errors.As(err, &e) {
		return ResolvedResult{}, false
	}
	tmplArgs := map[string]interface{}{
		"err":  e,
		"repo": string(repoOf(err)),
		"line": string(lineOf(err)),
	}
	// NestedErrDetails expects .err.Err to be set.
	if e.Err == nil {
		tmplArgs["err"] = nil
	}

	switch errors.KindOf(err) {
	case errors.InvalidParam:
		return ResolvedResult{Message: ExecuteTemplate(invalidParamMsg, tmplArgs)}, true
	case errors.MissingParam:
		return ResolvedResult{Message: ExecuteTemplate(missingParamMsg, tmplArgs)}, true
	case errors.External:
		return ResolvedResult{Message: ExecuteTemplate(upstreamMsg, tmplArgs)}, true
	case errors.CatalogEmpty:
		return ResolvedResult{Message: ExecuteTemplate(catalogEmptyMsg, tmplArgs)}, true
	case errors.Conflict:
		return ResolvedResult{Message: ExecuteTemplate(conflictMsg, tmplArgs)}, true
	case errors.Internal:
		return ResolvedResult{Message: ExecuteTemplate(internalMsg, tmplArgs)}, true
	}
	return ResolvedResult{}, false
}

// repoOf returns the innermost repository recorded in err's chain.
func repoOf(err error) errors.Repo {
	var repo errors.Repo
	for err != nil {
		var e *errors.Error
		if !errors.As(err, &e) {
			break
		}
		if e.Repo != "" {
			repo = e.Repo
		}
		err = e.Err
	}
	return repo
}

func lineOf(err error) errors.Line {
	var line errors.Line
	for err != nil {
		var e *errors.Error
		if !errors.As(err, &e) {
			break
		}
		if e.Line != "" {
			line = e.Line
		}
		err = e.Err
	}
	return line
}
