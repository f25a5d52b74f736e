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

// Package config loads the settings of a reconciliation run. Values come
// from flags, CHARTSYNC_* environment variables, a .chartsync.yaml file and
// built-in defaults, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/internal/upstream"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. CHARTSYNC_IMAGE.
	EnvPrefix = "CHARTSYNC"
	// DefaultFileName is looked up in the repository directory when no
	// config file is given.
	DefaultFileName = ".chartsync.yaml"
)

// Keys of the settings, also used as flag names.
const (
	Image          = "image"
	ChartPath      = "chart-path"
	OCIRegistry    = "oci-registry"
	OCIRepo        = "oci-repo"
	ManageBranches = "manage-branches"
	ManageTags     = "manage-tags"
	ManageOCI      = "manage-oci"
	DryRun         = "dry-run"
	Remote         = "remote"
	MainBranch     = "main-branch"
	RepoDir        = "repo-dir"
	TagSource      = "tag-source"
	PageSize       = "page-size"
	Output         = "output"
)

// Config holds the settings of a run.
type Config struct {
	Image          string `mapstructure:"image"`
	ChartPath      string `mapstructure:"chart-path"`
	OCIRegistry    string `mapstructure:"oci-registry"`
	OCIRepo        string `mapstructure:"oci-repo"`
	ManageBranches bool   `mapstructure:"manage-branches"`
	ManageTags     bool   `mapstructure:"manage-tags"`
	ManageOCI      bool   `mapstructure:"manage-oci"`
	DryRun         bool   `mapstructure:"dry-run"`
	Remote         string `mapstructure:"remote"`
	MainBranch     string `mapstructure:"main-branch"`
	RepoDir        string `mapstructure:"repo-dir"`
	TagSource      string `mapstructure:"tag-source"`
	PageSize       int    `mapstructure:"page-size"`
	Output         string `mapstructure:"output"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ChartPath, "chart")
	v.SetDefault(ManageBranches, true)
	v.SetDefault(ManageTags, true)
	v.SetDefault(ManageOCI, true)
	v.SetDefault(DryRun, false)
	v.SetDefault(Remote, "origin")
	v.SetDefault(MainBranch, "main")
	v.SetDefault(RepoDir, ".")
	v.SetDefault(TagSource, string(upstream.SourceAuto))
	v.SetDefault(PageSize, upstream.DefaultPageSize)
	v.SetDefault(Output, "table")
}

// Load reads the configuration. flags may be nil; only flags set on the
// command line override other sources. An empty configFile selects
// DefaultFileName in the repository directory when it exists.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	const op errors.Op = "config.Load"
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, errors.E(op, errors.Internal, err)
		}
	}

	if configFile == "" {
		candidate := filepath.Join(v.GetString(RepoDir), DefaultFileName)
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.E(op, errors.InvalidParam,
				fmt.Errorf("unable to read config file %q: %w", configFile, err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.E(op, errors.InvalidParam, err)
	}
	cfg.File = configFile
	return &cfg, nil
}

// Validate checks that the configuration describes a run that can start.
func (c *Config) Validate() error {
	const op errors.Op = "config.Validate"
	if c.Image == "" {
		return errors.E(op, errors.MissingParam, fmt.Errorf("an upstream image is required (--%s)", Image))
	}
	if c.ChartPath == "" {
		return errors.E(op, errors.MissingParam, fmt.Errorf("a chart path is required (--%s)", ChartPath))
	}
	if filepath.IsAbs(c.ChartPath) {
		return errors.E(op, errors.InvalidParam,
			fmt.Errorf("chart path %q must be relative to the repository", c.ChartPath))
	}
	if c.ManageOCI && (c.OCIRegistry == "" || c.OCIRepo == "") {
		return errors.E(op, errors.MissingParam,
			fmt.Errorf("--%s and --%s are required when OCI management is enabled", OCIRegistry, OCIRepo))
	}
	if _, err := upstream.ParseSource(c.TagSource); err != nil {
		return errors.E(op, err)
	}
	if c.PageSize <= 0 {
		return errors.E(op, errors.InvalidParam, fmt.Errorf("page size must be positive, got %d", c.PageSize))
	}
	if c.MainBranch == "" || c.Remote == "" {
		return errors.E(op, errors.MissingParam, fmt.Errorf("a remote and a main branch are required"))
	}
	return nil
}

// RegistryURL joins the registry host and repository charts are pushed to.
func (c *Config) RegistryURL() string {
	registry := strings.TrimSuffix(strings.TrimPrefix(c.OCIRegistry, "oci://"), "/")
	repo := strings.Trim(c.OCIRepo, "/")
	if repo == "" {
		return registry
	}
	return registry + "/" + repo
}
