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

// Package resolver turns errors into messages for the end user. Resolvers
// register themselves in init functions and are consulted in registration
// order.
package resolver

// errorResolvers is the list of known resolvers for chartsync errors.
var errorResolvers []ErrorResolver

// AddErrorResolver adds the provided error resolver to the list of resolvers
// which will be used to resolve errors.
func AddErrorResolver(er ErrorResolver) {
	errorResolvers = append(errorResolvers, er)
}

// ResolveError returns the message of the first resolver that recognizes
// err. The second return value is false if none does.
func ResolveError(err error) (ResolvedResult, bool) {
	for _, resolver := range errorResolvers {
		rr, found := resolver.Resolve(err)
		if !found {
			continue
		}
		// Errors never exit with 0.
		if rr.ExitCode == 0 {
			rr.ExitCode = 1
		}
		return rr, true
	}
	return ResolvedResult{}, false
}

// ResolvedResult is the message printed for an error and the exit code of
// the process.
type ResolvedResult struct {
	Message  string
	ExitCode int
}

// ErrorResolver is an interface that allows chartsync to resolve an error
// into an error message suitable for the end user.
type ErrorResolver interface {
	Resolve(err error) (ResolvedResult, bool)
}
