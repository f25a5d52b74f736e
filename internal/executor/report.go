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

package executor

import (
	"github.com/kptdev/chartsync/internal/types"
	"github.com/kptdev/chartsync/pkg/plan"
	"github.com/kptdev/chartsync/pkg/releaseline"
	"github.com/kptdev/chartsync/pkg/semver"
)

// StepName identifies one step of an entry.
type StepName string

const (
	StepCheckout         StepName = "checkout"
	StepCreateBranch     StepName = "create-branch"
	StepUpdateAppVersion StepName = "update-appVersion"
	StepUpdateVersion    StepName = "update-version"
	StepPush             StepName = "push"
	StepTag              StepName = "tag"
	StepPackage          StepName = "package"
)

// Step is the result of one step.
type Step struct {
	Name    StepName      `json:"name"`
	Outcome types.Outcome `json:"outcome"`
	Detail  string        `json:"detail,omitempty"`
	DryRun  bool          `json:"dryRun,omitempty"`
	Err     error         `json:"-"`
	Error   string        `json:"error,omitempty"`
}

func (s *Step) fail(err error) {
	s.Err = err
	s.Error = err.Error()
}

// EntryReport is the result of executing one plan entry.
type EntryReport struct {
	Line   releaseline.Line `json:"line"`
	Action plan.Action      `json:"action"`
	From   semver.Version   `json:"from"`
	To     semver.Version   `json:"to"`
	Steps  []Step           `json:"steps,omitempty"`
	// Commits is the number of commits made.
	Commits int `json:"commits"`
	// Applied is set once the entry's branch holds the target version on the
	// remote. Dry runs never apply.
	Applied  bool     `json:"applied"`
	Warnings []string `json:"warnings,omitempty"`
	Err      error    `json:"-"`
	Error    string   `json:"error,omitempty"`
}

func (r *EntryReport) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

// Failed reports whether any step of the entry failed.
func (r EntryReport) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// TagReport is the result of tagging one line's version.
type TagReport struct {
	Line    releaseline.Line `json:"line"`
	Tag     string           `json:"tag"`
	Outcome types.Outcome    `json:"outcome"`
	DryRun  bool             `json:"dryRun,omitempty"`
	Err     error            `json:"-"`
	Error   string           `json:"error,omitempty"`
}

func (r *TagReport) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

// PackageReport is the result of publishing one line's version.
type PackageReport struct {
	Line    releaseline.Line `json:"line"`
	Version semver.Version   `json:"version"`
	Ref     string           `json:"ref,omitempty"`
	Outcome types.Outcome    `json:"outcome"`
	DryRun  bool             `json:"dryRun,omitempty"`
	Err     error            `json:"-"`
	Error   string           `json:"error,omitempty"`
}

func (r *PackageReport) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}
