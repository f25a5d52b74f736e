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
	"io"
	"net/http"
	"time"

	"github.com/kptdev/chartsync/internal/errors"
	"k8s.io/klog/v2"
)

// DefaultHubURL is the Docker Hub API endpoint.
const DefaultHubURL = "https://hub.docker.com"

// HubLister lists tags through the Docker Hub v2 repositories API.
type HubLister struct {
	// BaseURL is the API endpoint, DefaultHubURL unless overridden.
	BaseURL string
	Client  *http.Client
}

var _ Lister = &HubLister{}

func NewHubLister() *HubLister {
	return &HubLister{
		BaseURL: DefaultHubURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type hubTagPage struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []struct {
		Name string `json:"name"`
	} `json:"results"`
}

// ListTags returns the names on the first page of tags of image. Official
// images ("nginx") are looked up under the "library" namespace.
func (h *HubLister) ListTags(ctx context.Context, image string, pageSize int) ([]string, error) {
	const op errors.Op = "upstream.HubListTags"
	ref, err := parseImage(image)
	if err != nil {
		return nil, errors.E(op, errors.Repo(image), err)
	}

	u := fmt.Sprintf("%s/v2/repositories/%s/tags/?page_size=%d",
		h.BaseURL, ref.Repository, pageSizeOrDefault(pageSize))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.E(op, errors.Repo(image), errors.Internal, err)
	}
	req.Header.Set("Accept", "application/json")

	klog.V(3).Infof("GET %s", u)
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, errors.E(op, errors.Repo(image), errors.External, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.E(op, errors.Repo(image), errors.External,
			fmt.Errorf("unexpected status %s from %s: %s", resp.Status, u, body))
	}

	var page hubTagPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errors.E(op, errors.Repo(image), errors.External,
			fmt.Errorf("error decoding response from %s: %w", u, err))
	}
	if page.Next != "" {
		klog.V(3).Infof("%s has %d tags, only the first %d are considered", image, page.Count, len(page.Results))
	}

	tags := make([]string, 0, len(page.Results))
	for _, r := range page.Results {
		tags = append(tags, r.Name)
	}
	return tags, nil
}
