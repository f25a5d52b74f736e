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
	"net/http"

	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
	"github.com/kptdev/chartsync/internal/errors"
)

//nolint:gochecknoinits
func init() {
	AddErrorResolver(&registryErrorResolver{})
}

const (
	registryAuthMsg = `
Error: Access to {{ printf "%q" .repo }} was denied (HTTP {{ .status }}). Log in to the registry with a docker credential helper or check the --oci-registry and --oci-repo flags.
`

	registryNotFoundMsg = `
Error: {{ printf "%q" .repo }} was not found in the registry.
`

	registryErrMsg = `
Error: The registry returned HTTP {{ .status }} for {{ printf "%q" .repo }}.
{{- if gt (len .details) 0 }}
{{ printf "\nDetails:" }}
{{ printf "%s" .details }}
{{- end }}
`
)

// registryErrorResolver is an implementation of the ErrorResolver interface
// that produces messages for errors returned by an OCI registry.
type registryErrorResolver struct{}

func (*registryErrorResolver) Resolve(err error) (ResolvedResult, bool) {
	var terr *transport.Error
	if !errors.As(err, &terr) {
		return ResolvedResult{}, false
	}
	tmplArgs := map[string]interface{}{
		"repo":    string(repoOf(err)),
		"status":  terr.StatusCode,
		"details": terr.Error(),
	}
	switch terr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ResolvedResult{Message: ExecuteTemplate(registryAuthMsg, tmplArgs)}, true
	case http.StatusNotFound:
		return ResolvedResult{Message: ExecuteTemplate(registryNotFoundMsg, tmplArgs)}, true
	}
	return ResolvedResult{Message: ExecuteTemplate(registryErrMsg, tmplArgs)}, true
}
