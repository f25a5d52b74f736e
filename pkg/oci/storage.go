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

// Package oci publishes packaged Helm charts to OCI registries.
package oci

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/gcrane"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
	"github.com/kptdev/chartsync/internal/chart"
	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/internal/types"
	"k8s.io/klog/v2"
)

// ChartPusher pushes chart archives as Helm OCI artifacts.
// It abstracts and simplifies the go-containerregistry library.
type ChartPusher struct {
	keychain  authn.Keychain
	transport http.RoundTripper
	insecure  bool
}

// Option configures a ChartPusher.
type Option func(*ChartPusher)

// WithTransport sets the transport used to reach registries.
func WithTransport(t http.RoundTripper) Option {
	return func(p *ChartPusher) { p.transport = t }
}

// WithKeychain sets where registry credentials are looked up.
func WithKeychain(k authn.Keychain) Option {
	return func(p *ChartPusher) { p.keychain = k }
}

// WithInsecure allows talking to registries over plain HTTP.
func WithInsecure(insecure bool) Option {
	return func(p *ChartPusher) { p.insecure = insecure }
}

// NewChartPusher returns a ChartPusher authenticating with the docker
// configuration and the cloud provider helpers known to gcrane.
func NewChartPusher(opts ...Option) *ChartPusher {
	p := &ChartPusher{
		keychain:  gcrane.Keychain,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ChartTagName holds a chart artifact we know by tag.
type ChartTagName struct {
	Repository string
	Tag        string
}

func (c ChartTagName) String() string {
	return fmt.Sprintf("%s:%s", c.Repository, c.Tag)
}

// ChartReference returns where the chart name at version is stored below
// registryURL ("registry.example.com/charts"). Build metadata is not allowed
// in OCI tags, so "+" is replaced with "_" as helm does.
func ChartReference(registryURL, chartName, version string) ChartTagName {
	registryURL = strings.TrimSuffix(strings.TrimPrefix(registryURL, "oci://"), "/")
	return ChartTagName{
		Repository: registryURL + "/" + chartName,
		Tag:        strings.ReplaceAll(version, "+", "_"),
	}
}

func (p *ChartPusher) ociReference(c ChartTagName) (name.Tag, error) {
	var opts []name.Option
	if p.insecure {
		opts = append(opts, name.Insecure)
	}
	ref, err := name.NewTag(c.String(), opts...)
	if err != nil {
		return name.Tag{}, fmt.Errorf("cannot parse chart reference %q: %w", c, err)
	}
	return ref, nil
}

func (p *ChartPusher) remoteOptions(ctx context.Context) []remote.Option {
	return []remote.Option{
		remote.WithAuthFromKeychain(p.keychain),
		remote.WithContext(ctx),
		remote.WithTransport(p.transport),
	}
}

// Exists reports whether the chart name at version is already stored below
// registryURL.
func (p *ChartPusher) Exists(ctx context.Context, registryURL, chartName, version string) (bool, error) {
	const op errors.Op = "oci.Exists"
	c := ChartReference(registryURL, chartName, version)
	ref, err := p.ociReference(c)
	if err != nil {
		return false, errors.E(op, errors.Repo(c.String()), errors.InvalidParam, err)
	}
	return p.exists(ctx, ref)
}

func (p *ChartPusher) exists(ctx context.Context, ref name.Tag) (bool, error) {
	const op errors.Op = "oci.exists"
	desc, err := remote.Head(ref, p.remoteOptions(ctx)...)
	if err == nil {
		klog.V(3).Infof("%s already exists with digest %s", ref, desc.Digest)
		return true, nil
	}
	var terr *transport.Error
	if goerrors.As(err, &terr) && terr.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, errors.E(op, errors.Repo(ref.String()), errors.OCI, err)
}

// Push uploads the chart archive at archivePath below registryURL, tagged
// with the chart version. A version already present in the registry is not
// overwritten and reported as types.Exists. The pushed reference is returned
// in both cases.
func (p *ChartPusher) Push(ctx context.Context, archivePath, registryURL string) (types.Outcome, string, error) {
	const op errors.Op = "oci.Push"
	archive, err := os.ReadFile(archivePath)
	if err != nil {
		return types.NotFound, "", errors.E(op, errors.IO, err)
	}
	m, err := chart.ReadArchiveManifest(archive)
	if err != nil {
		return types.NotFound, "", errors.E(op, err)
	}

	c := ChartReference(registryURL, m.Name(), m.Version())
	ref, err := p.ociReference(c)
	if err != nil {
		return types.NotFound, "", errors.E(op, errors.Repo(c.String()), errors.InvalidParam, err)
	}

	found, err := p.exists(ctx, ref)
	if err != nil {
		return types.NotFound, c.String(), errors.E(op, err)
	}
	if found {
		return types.Exists, c.String(), nil
	}

	img, err := newChartImage(m, archive)
	if err != nil {
		return types.NotFound, c.String(), errors.E(op, errors.Repo(c.String()), errors.Internal, err)
	}
	if err := remote.Write(ref, img, p.remoteOptions(ctx)...); err != nil {
		return types.NotFound, c.String(), errors.E(op, errors.Repo(c.String()), errors.OCI, err)
	}
	klog.V(3).Infof("pushed %s", c)
	return types.OK, c.String(), nil
}
