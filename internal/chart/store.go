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

package chart

import (
	"context"
	"path/filepath"
)

// FileStore reads and writes the manifest of a chart in a working tree.
type FileStore struct {
	// Root is the root of the working tree.
	Root string
	// ChartPath is the chart directory relative to Root.
	ChartPath string
}

// Dir returns the absolute chart directory.
func (s *FileStore) Dir() string {
	return filepath.Join(s.Root, s.ChartPath)
}

// Path returns the manifest path relative to Root, as recorded in git.
func (s *FileStore) Path() string {
	return filepath.ToSlash(filepath.Join(s.ChartPath, ManifestFileName))
}

func (s *FileStore) Read(context.Context) (*Manifest, error) {
	return ReadManifest(s.Dir())
}

func (s *FileStore) Write(_ context.Context, m *Manifest) error {
	return WriteManifest(s.Dir(), m)
}

// Package packages the chart of the working tree into destDir.
func (s *FileStore) Package(_ context.Context, destDir string) (string, error) {
	return Package(s.Dir(), destDir)
}
