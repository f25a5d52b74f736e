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

// Package upstream lists the tags published for an upstream container image.
package upstream

import (
	"context"
	"fmt"

	"github.com/kptdev/chartsync/internal/errors"
	regclientref "github.com/regclient/regclient/types/ref"
	"k8s.io/klog/v2"
)

// DefaultPageSize is the number of tags requested when none is configured.
// Only the first page of a listing is considered.
const DefaultPageSize = 100

// dockerHubRegistry is the registry name regclient assigns to references
// without a registry host.
const dockerHubRegistry = "docker.io"

// Lister lists the tags of an image. Only the first page of pageSize tags is
// returned.
type Lister interface {
	ListTags(ctx context.Context, image string, pageSize int) ([]string, error)
}

// Source selects the Lister used for an image.
type Source string

const (
	// SourceAuto uses the registry API when the image names a registry host
	// and Docker Hub otherwise.
	SourceAuto     Source = "auto"
	SourceHub      Source = "hub"
	SourceRegistry Source = "registry"
)

// Sources lists the accepted values of Source.
var Sources = []Source{SourceAuto, SourceHub, SourceRegistry}

// ParseSource validates s as a Source. The empty string selects SourceAuto.
func ParseSource(s string) (Source, error) {
	const op errors.Op = "upstream.ParseSource"
	if s == "" {
		return SourceAuto, nil
	}
	for _, src := range Sources {
		if string(src) == s {
			return src, nil
		}
	}
	return "", errors.E(op, errors.InvalidParam,
		fmt.Errorf("unknown tag source %q, must be one of %v", s, Sources))
}

// NewLister returns the Lister for source.
func NewLister(source Source) (Lister, error) {
	const op errors.Op = "upstream.NewLister"
	switch source {
	case SourceAuto, "":
		return &AutoLister{Hub: NewHubLister(), Registry: NewRegistryLister()}, nil
	case SourceHub:
		return NewHubLister(), nil
	case SourceRegistry:
		return NewRegistryLister(), nil
	}
	return nil, errors.E(op, errors.InvalidParam, fmt.Errorf("unknown tag source %q", source))
}

// AutoLister dispatches to Hub for Docker Hub images and to Registry for
// images hosted anywhere else.
type AutoLister struct {
	Hub      Lister
	Registry Lister
}

var _ Lister = &AutoLister{}

func (a *AutoLister) ListTags(ctx context.Context, image string, pageSize int) ([]string, error) {
	const op errors.Op = "upstream.ListTags"
	onHub, err := IsDockerHub(image)
	if err != nil {
		return nil, errors.E(op, errors.Repo(image), err)
	}
	if onHub {
		klog.V(3).Infof("listing tags of %s from Docker Hub", image)
		return a.Hub.ListTags(ctx, image, pageSize)
	}
	klog.V(3).Infof("listing tags of %s from its registry", image)
	return a.Registry.ListTags(ctx, image, pageSize)
}

// IsDockerHub reports whether image lives on Docker Hub, i.e. it does not
// name a registry host.
func IsDockerHub(image string) (bool, error) {
	ref, err := parseImage(image)
	if err != nil {
		return false, err
	}
	return ref.Registry == dockerHubRegistry, nil
}

// parseImage parses an image reference, ignoring any tag or digest.
func parseImage(image string) (regclientref.Ref, error) {
	const op errors.Op = "upstream.parseImage"
	ref, err := regclientref.New(image)
	if err != nil {
		return regclientref.Ref{}, errors.E(op, errors.InvalidParam,
			fmt.Errorf("failed to parse image %q as reference: %w", image, err))
	}
	ref.Tag = ""
	ref.Digest = ""
	return ref, nil
}

func pageSizeOrDefault(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	return n
}
