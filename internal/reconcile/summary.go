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

package reconcile

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/internal/executor"
	"sigs.k8s.io/yaml"
)

// Output formats of a summary.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Outputs lists the supported output formats.
var Outputs = []string{OutputTable, OutputJSON, OutputYAML}

// Summary is the result of a run.
type Summary struct {
	Image  string `json:"image"`
	DryRun bool   `json:"dryRun"`
	// Latest is the newest upstream version.
	Latest   string                   `json:"latest,omitempty"`
	Versions int                      `json:"versions"`
	Lines    []executor.EntryReport   `json:"lines"`
	Tags     []executor.TagReport     `json:"tags,omitempty"`
	Packages []executor.PackageReport `json:"packages,omitempty"`
	Warnings []string                 `json:"warnings,omitempty"`
	// Errors are failures of the run itself, as opposed to failures of a
	// single line.
	Errors     []string `json:"errors,omitempty"`
	ExitStatus int      `json:"exitStatus"`

	errs []error
}

func (s *Summary) warnf(format string, args ...interface{}) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

func (s *Summary) fail(err error) {
	s.errs = append(s.errs, err)
	s.Errors = append(s.Errors, err.Error())
}

// Err returns the first failure of the run itself, if any.
func (s *Summary) Err() error {
	if len(s.errs) == 0 {
		return nil
	}
	return s.errs[0]
}

// Failed reports whether the run or any of its steps failed.
func (s *Summary) Failed() bool {
	if len(s.Errors) > 0 {
		return true
	}
	for _, l := range s.Lines {
		if l.Failed() {
			return true
		}
	}
	for _, t := range s.Tags {
		if t.Err != nil {
			return true
		}
	}
	for _, p := range s.Packages {
		if p.Err != nil {
			return true
		}
	}
	return false
}

func (s *Summary) finish() *Summary {
	s.ExitStatus = 0
	if s.Failed() {
		s.ExitStatus = 1
	}
	return s
}

// Print writes the summary to w in the given format.
func (s *Summary) Print(w io.Writer, format string) error {
	const op errors.Op = "reconcile.Print"
	switch format {
	case OutputJSON:
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return errors.E(op, errors.Internal, err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case OutputYAML:
		b, err := yaml.Marshal(s)
		if err != nil {
			return errors.E(op, errors.Internal, err)
		}
		_, err = w.Write(b)
		return err
	case OutputTable, "":
		s.printTables(w)
		return nil
	}
	return errors.E(op, errors.InvalidParam,
		fmt.Errorf("unknown output %q, must be one of %s", format, strings.Join(Outputs, ", ")))
}

func (s *Summary) printTables(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"LINE", "ACTION", "FROM", "TO", "STEPS", "RESULT"})
	for _, l := range s.Lines {
		t.AppendRow(table.Row{l.Line, l.Action, l.From, l.To, steps(l.Steps), lineResult(l)})
	}
	t.Render()

	if len(s.Tags) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"LINE", "TAG", "RESULT"})
		for _, tag := range s.Tags {
			t.AppendRow(table.Row{tag.Line, tag.Tag, result(tag.Outcome.String(), tag.DryRun, tag.Error)})
		}
		t.Render()
	}

	if len(s.Packages) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"LINE", "PACKAGE", "RESULT"})
		for _, p := range s.Packages {
			t.AppendRow(table.Row{p.Line, p.Ref, result(p.Outcome.String(), p.DryRun, p.Error)})
		}
		t.Render()
	}

	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	for _, l := range s.Lines {
		for _, warning := range l.Warnings {
			fmt.Fprintf(w, "warning: %s: %s\n", l.Line, warning)
		}
	}
	for _, e := range s.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	if s.DryRun {
		fmt.Fprintln(w, "dry run: no changes were made")
	}
}

func steps(ss []executor.Step) string {
	var parts []string
	for _, s := range ss {
		parts = append(parts, fmt.Sprintf("%s=%s", s.Name, s.Outcome))
	}
	return strings.Join(parts, " ")
}

func lineResult(l executor.EntryReport) string {
	switch {
	case l.Error != "":
		return "failed: " + l.Error
	case l.Applied:
		return "applied"
	}
	for _, s := range l.Steps {
		if s.Error != "" {
			return "failed: " + s.Error
		}
	}
	return "-"
}

func result(outcome string, dryRun bool, errMsg string) string {
	switch {
	case errMsg != "":
		return "failed: " + errMsg
	case dryRun:
		return "would create"
	}
	return outcome
}
