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

// Package types defines the basic types shared by the chartsync collaborators
// and the reconciliation core.
package types

// Outcome is the structured result of a single collaborator call. Errors are
// returned separately; an Outcome is only meaningful when the error is nil.
type Outcome int

const (
	// OK means the operation performed a change.
	OK Outcome = iota
	// NoOp means there was nothing to do, e.g. nothing staged to commit.
	NoOp
	// Exists means the target (tag, branch, artifact) was already present.
	Exists
	// Rejected means the remote refused the change because it diverged.
	Rejected
	// NotFound means the referenced object does not exist.
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case NoOp:
		return "noop"
	case Exists:
		return "exists"
	case Rejected:
		return "rejected"
	case NotFound:
		return "not-found"
	}
	return "unknown"
}

// Succeeded reports whether the outcome leaves the target in the desired
// state.
func (o Outcome) Succeeded() bool {
	return o == OK || o == NoOp || o == Exists
}

// MarshalText renders the outcome by name in JSON and YAML summaries.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
