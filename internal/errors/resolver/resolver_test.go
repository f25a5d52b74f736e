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
	"fmt"
	"testing"

	"github.com/kptdev/chartsync/internal/errors"
	"github.com/stretchr/testify/assert"
)

type staticResolver struct {
	match  string
	result ResolvedResult
}

func (s staticResolver) Resolve(err error) (ResolvedResult, bool) {
	if err.Error() != s.match {
		return ResolvedResult{}, false
	}
	return s.result, true
}

func withResolvers(t *testing.T, rs ...ErrorResolver) {
	org := errorResolvers
	errorResolvers = rs
	t.Cleanup(func() { errorResolvers = org })
}

func TestResolveError_registry(t *testing.T) {
	testCases := map[string]struct {
		err      error
		expected ResolvedResult
		found    bool
	}{
		"default exit code": {
			err:      fmt.Errorf("first"),
			expected: ResolvedResult{Message: "one", ExitCode: 1},
			found:    true,
		},
		"explicit exit code": {
			err:      fmt.Errorf("second"),
			expected: ResolvedResult{Message: "two", ExitCode: 4},
			found:    true,
		},
		"first match wins": {
			err:      fmt.Errorf("twice"),
			expected: ResolvedResult{Message: "early", ExitCode: 1},
			found:    true,
		},
		"no match": {
			err: fmt.Errorf("other"),
		},
	}

	withResolvers(t,
		staticResolver{match: "first", result: ResolvedResult{Message: "one"}},
		staticResolver{match: "second", result: ResolvedResult{Message: "two", ExitCode: 4}},
		staticResolver{match: "twice", result: ResolvedResult{Message: "early"}},
		staticResolver{match: "twice", result: ResolvedResult{Message: "late"}},
	)
	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			rr, found := ResolveError(tc.err)
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.expected, rr)
		})
	}
}

func TestExecuteTemplate(t *testing.T) {
	msg := ExecuteTemplate(`
Error: failed.
{{- template "NestedErrDetails" . }}
{{ template "RerunHint" }}
`, map[string]interface{}{
		"err": errors.E(errors.Op("executor.Push"), fmt.Errorf("rejected")),
	})
	assert.Equal(t, "Error: failed.\n\nDetails:\nrejected\n\nRun chartsync again to reconcile against the new remote state.", msg)
}
