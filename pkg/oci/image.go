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

package oci

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/partial"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/static"
	"github.com/google/go-containerregistry/pkg/v1/types"
	"github.com/kptdev/chartsync/internal/chart"
	"github.com/kptdev/chartsync/internal/errors"
	"sigs.k8s.io/yaml"
)

const (
	// ConfigMediaType is the media type of the chart metadata blob.
	ConfigMediaType types.MediaType = "application/vnd.cncf.helm.config.v1+json"
	// ChartLayerMediaType is the media type of the chart archive layer.
	ChartLayerMediaType types.MediaType = "application/vnd.cncf.helm.chart.content.v1.tar+gzip"
)

// chartImage is a partial.CompressedImageCore holding a chart archive as its
// only layer and the chart metadata as its config.
type chartImage struct {
	config   []byte
	layer    v1.Layer
	manifest []byte
}

var _ partial.CompressedImageCore = &chartImage{}

func newChartImage(m *chart.Manifest, archive []byte) (v1.Image, error) {
	raw, err := m.Bytes()
	if err != nil {
		return nil, err
	}
	config, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("error converting chart metadata: %w", err)
	}

	layer := static.NewLayer(archive, ChartLayerMediaType)
	layerDigest, err := layer.Digest()
	if err != nil {
		return nil, err
	}
	configDigest, configSize, err := v1.SHA256(bytes.NewReader(config))
	if err != nil {
		return nil, err
	}

	manifest, err := json.Marshal(v1.Manifest{
		SchemaVersion: 2,
		MediaType:     types.OCIManifestSchema1,
		Config: v1.Descriptor{
			MediaType: ConfigMediaType,
			Size:      configSize,
			Digest:    configDigest,
		},
		Layers: []v1.Descriptor{{
			MediaType: ChartLayerMediaType,
			Size:      int64(len(archive)),
			Digest:    layerDigest,
		}},
	})
	if err != nil {
		return nil, err
	}

	return partial.CompressedToImage(&chartImage{
		config:   config,
		layer:    layer,
		manifest: manifest,
	})
}

func (c *chartImage) RawConfigFile() ([]byte, error) { return c.config, nil }

func (c *chartImage) MediaType() (types.MediaType, error) { return types.OCIManifestSchema1, nil }

func (c *chartImage) RawManifest() ([]byte, error) { return c.manifest, nil }

func (c *chartImage) LayerByDigest(h v1.Hash) (partial.CompressedLayer, error) {
	if d, err := c.layer.Digest(); err == nil && d == h {
		return c.layer, nil
	}
	cfg := static.NewLayer(c.config, ConfigMediaType)
	if d, err := cfg.Digest(); err == nil && d == h {
		return cfg, nil
	}
	return nil, fmt.Errorf("blob %s not found in chart artifact", h)
}

// PulledChart is a chart artifact read back from a registry.
type PulledChart struct {
	Digest v1.Hash
	// Config is the chart metadata as JSON.
	Config []byte
	// Archive is the packaged chart.
	Archive []byte
}

// Pull fetches the chart name at version from registryURL.
func (p *ChartPusher) Pull(ctx context.Context, registryURL, chartName, version string) (*PulledChart, error) {
	const op errors.Op = "oci.Pull"
	c := ChartReference(registryURL, chartName, version)
	ref, err := p.ociReference(c)
	if err != nil {
		return nil, errors.E(op, errors.Repo(c.String()), errors.InvalidParam, err)
	}

	img, err := remote.Image(ref, p.remoteOptions(ctx)...)
	if err != nil {
		return nil, errors.E(op, errors.Repo(c.String()), errors.OCI, err)
	}
	digest, err := img.Digest()
	if err != nil {
		return nil, errors.E(op, errors.Repo(c.String()), errors.OCI, err)
	}
	config, err := img.RawConfigFile()
	if err != nil {
		return nil, errors.E(op, errors.Repo(c.String()), errors.OCI, err)
	}
	layers, err := img.Layers()
	if err != nil {
		return nil, errors.E(op, errors.Repo(c.String()), errors.OCI, err)
	}
	if len(layers) != 1 {
		return nil, errors.E(op, errors.Repo(c.String()), errors.OCI,
			fmt.Errorf("expected a single chart layer, found %d", len(layers)))
	}
	rc, err := layers[0].Compressed()
	if err != nil {
		return nil, errors.E(op, errors.Repo(c.String()), errors.OCI, err)
	}
	defer rc.Close()
	archive, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.E(op, errors.Repo(c.String()), errors.OCI, err)
	}
	return &PulledChart{Digest: digest, Config: config, Archive: archive}, nil
}
