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

package upstream

import (
	"context"

	"github.com/kptdev/chartsync/internal/errors"
	"github.com/regclient/regclient"
	"github.com/regclient/regclient/scheme"
	"k8s.io/klog/v2"
)

// RegistryLister lists tags through the OCI distribution API of the registry
// hosting the image. Credentials are read from the docker configuration.
type RegistryLister struct {
	client *regclient.RegClient
}

var _ Lister = &RegistryLister{}

// NewRegistryLister returns a RegistryLister. opts are appended to the
// defaults and may, for example, configure a plain HTTP host.
func NewRegistryLister(opts ...regclient.Opt) *RegistryLister {
	all := append([]regclient.Opt{
		regclient.WithDockerCreds(),
		regclient.WithUserAgent("chartsync"),
	}, opts...)
	return &RegistryLister{client: regclient.New(all...)}
}

func (l *RegistryLister) ListTags(ctx context.Context, image string, pageSize int) ([]string, error) {
	const op errors.Op = "upstream.RegistryListTags"
	ref, err := parseImage(image)
	if err != nil {
		return nil, errors.E(op, errors.Repo(image), err)
	}
	defer func() {
		_ = l.client.Close(ctx, ref)
	}()

	klog.V(3).Infof("listing tags of %s", ref.CommonName())
	tl, err := l.client.TagList(ctx, ref, scheme.WithTagLimit(pageSizeOrDefault(pageSize)))
	if err != nil {
		return nil, errors.E(op, errors.Repo(image), errors.External, err)
	}
	tags, err := tl.GetTags()
	if err != nil {
		return nil, errors.E(op, errors.Repo(image), errors.External, err)
	}
	// Registries are free to ignore the limit.
	if n := pageSizeOrDefault(pageSize); len(tags) > n {
		tags = tags[:n]
	}
	return tags, nil
}
