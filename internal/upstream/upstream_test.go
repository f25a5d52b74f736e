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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/registry"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/kptdev/chartsync/internal/errors"
	"github.com/regclient/regclient"
	"github.com/regclient/regclient/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hubServer(t *testing.T, pages map[string][]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		repo := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v2/repositories/"), "/tags/")
		tags, found := pages[repo]
		if !found {
			http.Error(w, `{"message":"object not found"}`, http.StatusNotFound)
			return
		}
		size := r.URL.Query().Get("page_size")
		var n int
		_, _ = fmt.Sscan(size, &n)
		page := hubTagPage{Count: len(tags)}
		if n < len(tags) {
			page.Next = "https://hub.example/next"
			tags = tags[:n]
		}
		for _, tag := range tags {
			page.Results = append(page.Results, struct {
				Name string `json:"name"`
			}{Name: tag})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHubLister(t *testing.T) {
	srv := hubServer(t, map[string][]string{
		"library/nginx": {"1.25.3", "latest", "1.25.2", "mainline"},
		"bitnami/redis": {"7.2.4", "7.2.3"},
	})

	testCases := map[string]struct {
		image    string
		pageSize int
		expected []string
		errKind  errors.Kind
	}{
		"official image": {
			image:    "nginx",
			pageSize: 10,
			expected: []string{"1.25.3", "latest", "1.25.2", "mainline"},
		},
		"namespaced image with tag": {
			image:    "bitnami/redis:7.2.3",
			expected: []string{"7.2.4", "7.2.3"},
		},
		"only first page": {
			image:    "docker.io/library/nginx",
			pageSize: 2,
			expected: []string{"1.25.3", "latest"},
		},
		"unknown repository": {
			image:   "acme/missing",
			errKind: errors.External,
		},
		"invalid reference": {
			image:   "UPPER CASE",
			errKind: errors.InvalidParam,
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			l := &HubLister{BaseURL: srv.URL, Client: srv.Client()}
			tags, err := l.ListTags(context.Background(), tc.image, tc.pageSize)
			if tc.errKind != errors.Other {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.errKind), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, tags)
		})
	}
}

func TestParseSource(t *testing.T) {
	for _, s := range []string{"", "auto", "hub", "registry"} {
		_, err := ParseSource(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseSource("quay")
	assert.True(t, errors.Is(err, errors.InvalidParam))
}

func TestIsDockerHub(t *testing.T) {
	testCases := map[string]bool{
		"nginx":                      true,
		"bitnami/redis:7":            true,
		"docker.io/library/nginx":    true,
		"ghcr.io/acme/app":           false,
		"localhost:5000/app":         false,
		"registry.example.com/a/b:1": false,
	}
	for image, want := range testCases {
		got, err := IsDockerHub(image)
		require.NoError(t, err, image)
		assert.Equal(t, want, got, image)
	}
}

// recordingLister remembers which images it was asked about.
type recordingLister struct {
	images []string
}

func (r *recordingLister) ListTags(_ context.Context, image string, _ int) ([]string, error) {
	r.images = append(r.images, image)
	return []string{"1.0.0"}, nil
}

func TestAutoLister(t *testing.T) {
	hub, reg := &recordingLister{}, &recordingLister{}
	l := &AutoLister{Hub: hub, Registry: reg}

	for _, image := range []string{"nginx", "ghcr.io/acme/app", "bitnami/redis"} {
		_, err := l.ListTags(context.Background(), image, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"nginx", "bitnami/redis"}, hub.images)
	assert.Equal(t, []string{"ghcr.io/acme/app"}, reg.images)
}

func TestRegistryLister(t *testing.T) {
	srv := httptest.NewServer(registry.New())
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host := u.Host

	for _, tag := range []string{"1.0.0", "1.0.1", "1.1.0", "latest"} {
		ref, err := name.ParseReference(fmt.Sprintf("%s/acme/app:%s", host, tag))
		require.NoError(t, err)
		img, err := random.Image(64, 1)
		require.NoError(t, err)
		require.NoError(t, remote.Write(ref, img))
	}

	l := NewRegistryLister(regclient.WithConfigHost(config.Host{
		Name: host,
		TLS:  config.TLSDisabled,
	}))

	tags, err := l.ListTags(context.Background(), host+"/acme/app", 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1.0.0", "1.0.1", "1.1.0", "latest"}, tags)

	tags, err = l.ListTags(context.Background(), host+"/acme/app", 2)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	_, err = l.ListTags(context.Background(), host+"/acme/missing", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.External))
}
