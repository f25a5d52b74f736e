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

// Package chart reads and edits Helm chart manifests and packages charts
// into archives.
package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kptdev/chartsync/internal/errors"
	"sigs.k8s.io/kustomize/kyaml/yaml"
)

// ManifestFileName is the name of the chart manifest inside a chart
// directory.
const ManifestFileName = "Chart.yaml"

const (
	nameField       = "name"
	versionField    = "version"
	appVersionField = "appVersion"
)

// Manifest is a parsed Chart.yaml. Edits only touch the fields they set;
// comments, ordering and every other field are written back unchanged.
type Manifest struct {
	node     *yaml.RNode
	seqStyle yaml.SequenceIndentStyle
}

// ManifestPath returns the path of the manifest of the chart in chartDir.
func ManifestPath(chartDir string) string {
	return filepath.Join(chartDir, ManifestFileName)
}

// ParseManifest parses the content of a Chart.yaml.
func ParseManifest(b []byte) (*Manifest, error) {
	const op errors.Op = "chart.ParseManifest"
	node, err := yaml.Parse(string(b))
	if err != nil {
		return nil, errors.E(op, errors.InvalidParam, fmt.Errorf("invalid chart manifest: %w", err))
	}
	if node.YNode().Kind != yaml.MappingNode {
		return nil, errors.E(op, errors.InvalidParam,
			fmt.Errorf("invalid chart manifest: expected a mapping, got %s", node.YNode().ShortTag()))
	}
	return &Manifest{node: node, seqStyle: seqIndentStyle(string(b))}, nil
}

// ReadManifest reads the manifest of the chart in chartDir.
func ReadManifest(chartDir string) (*Manifest, error) {
	const op errors.Op = "chart.ReadManifest"
	b, err := os.ReadFile(ManifestPath(chartDir))
	if err != nil {
		return nil, errors.E(op, errors.IO, err)
	}
	m, err := ParseManifest(b)
	if err != nil {
		return nil, errors.E(op, err)
	}
	return m, nil
}

// WriteManifest writes m as the manifest of the chart in chartDir.
func WriteManifest(chartDir string, m *Manifest) error {
	const op errors.Op = "chart.WriteManifest"
	b, err := m.Bytes()
	if err != nil {
		return errors.E(op, err)
	}
	// fyi: perm is ignored if the file already exists
	if err := os.WriteFile(ManifestPath(chartDir), b, 0600); err != nil {
		return errors.E(op, errors.IO, err)
	}
	return nil
}

// Bytes renders the manifest.
func (m *Manifest) Bytes() ([]byte, error) {
	const op errors.Op = "chart.Bytes"
	b, err := yaml.MarshalWithOptions(m.node.Document(), &yaml.EncoderOptions{SeqIndent: m.seqStyle})
	if err != nil {
		return nil, errors.E(op, errors.Internal, err)
	}
	return b, nil
}

func (m *Manifest) Name() string { return m.get(nameField) }

// Version returns the chart version with any surrounding quotes removed.
func (m *Manifest) Version() string { return m.get(versionField) }

// AppVersion returns the application version with any surrounding quotes
// removed.
func (m *Manifest) AppVersion() string { return m.get(appVersionField) }

// SetVersion sets the chart version and reports whether it changed.
func (m *Manifest) SetVersion(v string) (bool, error) {
	return m.set(versionField, v, 0)
}

// SetAppVersion sets the application version and reports whether it
// changed. A newly added appVersion is double quoted as helm does.
func (m *Manifest) SetAppVersion(v string) (bool, error) {
	return m.set(appVersionField, v, yaml.DoubleQuotedStyle)
}

func (m *Manifest) get(field string) string {
	n := m.node.Field(field)
	if n == nil || n.Value == nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(n.Value.YNode().Value), `"'`)
}

// set updates field in place so the existing quoting is kept. style is used
// when the field does not exist yet.
func (m *Manifest) set(field, value string, style yaml.Style) (bool, error) {
	const op errors.Op = "chart.set"
	if f := m.node.Field(field); f != nil && f.Value != nil {
		y := f.Value.YNode()
		if y.Kind != yaml.ScalarNode {
			return false, errors.E(op, errors.InvalidParam,
				fmt.Errorf("field %q is not a scalar", field))
		}
		if y.Value == value {
			return false, nil
		}
		y.Value = value
		y.Tag = yaml.NodeTagString
		return true, nil
	}

	n := yaml.NewScalarRNode(value)
	n.YNode().Style = style
	if err := m.node.PipeE(yaml.SetField(field, n)); err != nil {
		return false, errors.E(op, errors.Internal, err)
	}
	return true, nil
}

// seqIndentStyle guesses whether sequences in raw are indented below their
// parent key ("wide") or aligned with it ("compact").
func seqIndentStyle(raw string) yaml.SequenceIndentStyle {
	prevIndent := -1
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := len(line) - len(trimmed)
		if strings.HasPrefix(trimmed, "- ") || trimmed == "-" {
			if prevIndent >= 0 && indent > prevIndent {
				return yaml.WideSequenceStyle
			}
			return yaml.CompactSequenceStyle
		}
		prevIndent = indent
	}
	return yaml.CompactSequenceStyle
}
