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
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/pkg/semver"
	gitignore "github.com/monochromegane/go-gitignore"
	"k8s.io/klog/v2"
)

// IgnoreFileName is the file listing paths excluded from a chart archive.
const IgnoreFileName = ".helmignore"

// defaultIgnore is always applied on top of .helmignore.
const defaultIgnore = "templates/.?*\n"

// Package archives the chart in chartDir into destDir as
// <name>-<version>.tgz with every file below a <name>/ directory. Files
// matching .helmignore are left out. It returns the archive path.
func Package(chartDir, destDir string) (string, error) {
	const op errors.Op = "chart.Package"
	m, err := ReadManifest(chartDir)
	if err != nil {
		return "", errors.E(op, err)
	}
	name, version := m.Name(), m.Version()
	if name == "" {
		return "", errors.E(op, errors.MissingParam, fmt.Errorf("chart in %s has no name", chartDir))
	}
	if _, err := semver.Parse(version); err != nil {
		return "", errors.E(op, err)
	}

	matcher, err := ignoreMatcher(chartDir)
	if err != nil {
		return "", errors.E(op, err)
	}

	if err := os.MkdirAll(destDir, 0700); err != nil {
		return "", errors.E(op, errors.IO, err)
	}
	dest := filepath.Join(destDir, fmt.Sprintf("%s-%s.tgz", name, version))
	f, err := os.Create(dest)
	if err != nil {
		return "", errors.E(op, errors.IO, err)
	}
	defer f.Close()

	if err := writeArchive(f, chartDir, name, matcher); err != nil {
		return "", errors.E(op, errors.IO, err)
	}
	if err := f.Close(); err != nil {
		return "", errors.E(op, errors.IO, err)
	}
	klog.V(3).Infof("packaged %s into %s", chartDir, dest)
	return dest, nil
}

func ignoreMatcher(chartDir string) (gitignore.IgnoreMatcher, error) {
	patterns := bytes.NewBufferString(defaultIgnore)
	b, err := os.ReadFile(filepath.Join(chartDir, IgnoreFileName))
	switch {
	case err == nil:
		patterns.Write(b)
	case !os.IsNotExist(err):
		return nil, errors.E(errors.IO, err)
	}
	return gitignore.NewGitIgnoreFromReader(chartDir, patterns), nil
}

func writeArchive(w io.Writer, chartDir, name string, matcher gitignore.IgnoreMatcher) error {
	zw := gzip.NewWriter(w)
	tw := tar.NewWriter(zw)
	// Fixed timestamps keep archives of identical content identical.
	modTime := time.Unix(0, 0)

	err := filepath.Walk(chartDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == chartDir {
			return nil
		}
		if info.IsDir() && info.Name() == ".git" {
			return filepath.SkipDir
		}
		if matcher.Match(path, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(chartDir, path)
		if err != nil {
			return err
		}
		hdr := &tar.Header{
			Name:    name + "/" + filepath.ToSlash(rel),
			Mode:    0644,
			Size:    info.Size(),
			ModTime: modTime,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return zw.Close()
}

// ReadArchiveManifest returns the manifest packaged in a chart archive.
func ReadArchiveManifest(archive []byte) (*Manifest, error) {
	const op errors.Op = "chart.ReadArchiveManifest"
	zr, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, errors.E(op, errors.InvalidParam, err)
	}
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.E(op, errors.InvalidParam, err)
		}
		parts := strings.Split(hdr.Name, "/")
		if len(parts) == 2 && parts[1] == ManifestFileName {
			b, err := io.ReadAll(tr)
			if err != nil {
				return nil, errors.E(op, errors.IO, err)
			}
			return ParseManifest(b)
		}
	}
	return nil, errors.E(op, errors.InvalidParam, fmt.Errorf("archive has no %s", ManifestFileName))
}
