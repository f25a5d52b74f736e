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

// Package cmdreconcile contains the reconcile command.
package cmdreconcile

import (
	"context"

	"github.com/kptdev/chartsync/internal/chart"
	"github.com/kptdev/chartsync/internal/config"
	docs "github.com/kptdev/chartsync/internal/docs/generated/syncdocs"
	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/internal/gitutil"
	"github.com/kptdev/chartsync/internal/reconcile"
	"github.com/kptdev/chartsync/internal/upstream"
	"github.com/kptdev/chartsync/internal/util/cmdutil"
	"github.com/kptdev/chartsync/pkg/oci"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// NewRunner returns a command runner.
func NewRunner(ctx context.Context, parent string) *Runner {
	r := &Runner{
		ctx:       ctx,
		NewLister: upstream.NewLister,
	}
	c := &cobra.Command{
		Use:     "reconcile [flags]",
		Args:    cobra.NoArgs,
		Short:   docs.ReconcileShort,
		Long:    docs.ReconcileShort + "\n" + docs.ReconcileLong,
		Example: docs.ReconcileExamples,
		PreRunE: r.preRunE,
		RunE:    r.runE,
	}

	c.Flags().StringVar(&r.ConfigFile, "config", "",
		"configuration file. Defaults to "+config.DefaultFileName+" in the repository directory.")
	c.Flags().String(config.Image, "",
		"the upstream image whose tags are the available versions.")
	c.Flags().String(config.ChartPath, "chart",
		"path of the chart directory relative to the repository root.")
	c.Flags().String(config.OCIRegistry, "",
		"registry host the packaged charts are pushed to.")
	c.Flags().String(config.OCIRepo, "",
		"repository in the registry the packaged charts are pushed to.")
	c.Flags().Bool(config.ManageBranches, true,
		"update the chart on every release line and create missing maintenance branches.")
	c.Flags().Bool(config.ManageTags, true,
		"tag every release line with its chart version.")
	c.Flags().Bool(config.ManageOCI, true,
		"package the chart of every release line and push it to the registry.")
	c.Flags().Bool(config.DryRun, false,
		"print what would change without changing anything.")
	c.Flags().String(config.Remote, gitutil.DefaultRemote,
		"the git remote release lines are read from and pushed to.")
	c.Flags().String(config.MainBranch, "main",
		"the branch tracking the newest upstream version.")
	c.Flags().String(config.RepoDir, ".",
		"the chart repository.")
	c.Flags().String(config.TagSource, string(upstream.SourceAuto),
		"where tags are listed from, one of auto, hub or registry.")
	c.Flags().Int(config.PageSize, upstream.DefaultPageSize,
		"the number of tags requested from the upstream registry.")
	c.Flags().String(config.Output, reconcile.OutputTable,
		"format of the summary, one of table, json or yaml.")

	cmdutil.FixDocs("chartsync", parent, c)
	r.Command = c
	return r
}

func NewCommand(ctx context.Context, parent string) *cobra.Command {
	return NewRunner(ctx, parent).Command
}

// Runner contains the run function
type Runner struct {
	ctx        context.Context
	Command    *cobra.Command
	ConfigFile string
	Config     *config.Config

	// NewLister creates the lister for the configured tag source.
	NewLister func(upstream.Source) (upstream.Lister, error)
	// PusherOptions configure the OCI client.
	PusherOptions []oci.Option
}

func (r *Runner) preRunE(c *cobra.Command, _ []string) error {
	const op errors.Op = "cmdreconcile.preRunE"
	cfg, err := config.Load(c.Flags(), r.ConfigFile)
	if err != nil {
		return errors.E(op, err)
	}
	if err := cfg.Validate(); err != nil {
		return errors.E(op, err)
	}
	if err := cmdutil.ValidateOneOf(config.Output, cfg.Output, reconcile.Outputs); err != nil {
		return errors.E(op, errors.InvalidParam, err)
	}
	if cfg.File != "" {
		klog.V(3).Infof("using config file %s", cfg.File)
	}
	r.Config = cfg
	return nil
}

func (r *Runner) runE(c *cobra.Command, _ []string) error {
	const op errors.Op = "cmdreconcile.runE"
	cfg := r.Config

	repo, err := gitutil.NewRepo(cfg.RepoDir, cfg.Remote)
	if err != nil {
		return errors.E(op, err)
	}
	source, err := upstream.ParseSource(cfg.TagSource)
	if err != nil {
		return errors.E(op, err)
	}
	lister, err := r.NewLister(source)
	if err != nil {
		return errors.E(op, err)
	}
	store := &chart.FileStore{Root: cfg.RepoDir, ChartPath: cfg.ChartPath}

	cmd := reconcile.Command{
		VCS:            repo,
		Manifests:      store,
		Packager:       store,
		Publisher:      oci.NewChartPusher(r.PusherOptions...),
		Lister:         lister,
		Image:          cfg.Image,
		PageSize:       cfg.PageSize,
		Remote:         cfg.Remote,
		MainBranch:     cfg.MainBranch,
		ManageBranches: cfg.ManageBranches,
		ManageTags:     cfg.ManageTags,
		ManageOCI:      cfg.ManageOCI,
		RegistryURL:    cfg.RegistryURL(),
		DryRun:         cfg.DryRun,
	}
	s, runErr := cmd.Run(r.ctx)
	if err := s.Print(c.OutOrStdout(), cfg.Output); err != nil {
		return errors.E(op, err)
	}
	if runErr != nil {
		return errors.E(op, runErr)
	}
	if s.ExitStatus != 0 {
		return &cmdutil.ExitCodeError{Code: s.ExitStatus}
	}
	return nil
}
