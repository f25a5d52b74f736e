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

// Package cmdversions contains the versions command.
package cmdversions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	docs "github.com/kptdev/chartsync/internal/docs/generated/syncdocs"
	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/internal/reconcile"
	"github.com/kptdev/chartsync/internal/upstream"
	"github.com/kptdev/chartsync/internal/util/cmdutil"
	"github.com/kptdev/chartsync/pkg/catalog"
	"github.com/kptdev/chartsync/pkg/printer"
	"github.com/kptdev/chartsync/pkg/releaseline"
	"github.com/kptdev/chartsync/pkg/semver"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"
	"sigs.k8s.io/yaml"
)

// OutputTree groups the versions by release line.
const OutputTree = "tree"

var outputs = append(append([]string(nil), reconcile.Outputs...), OutputTree)

// NewRunner returns a command runner.
func NewRunner(ctx context.Context, parent string) *Runner {
	r := &Runner{
		ctx:       ctx,
		NewLister: upstream.NewLister,
	}
	c := &cobra.Command{
		Use:     "versions IMAGE [flags]",
		Args:    cobra.ExactArgs(1),
		Short:   docs.VersionsShort,
		Long:    docs.VersionsShort + "\n" + docs.VersionsLong,
		Example: docs.VersionsExamples,
		PreRunE: r.preRunE,
		RunE:    r.runE,
	}
	c.Flags().StringVar(&r.TagSource, "tag-source", string(upstream.SourceAuto),
		"where tags are listed from, one of auto, hub or registry.")
	c.Flags().IntVar(&r.PageSize, "page-size", upstream.DefaultPageSize,
		"the number of tags requested from the upstream registry.")
	c.Flags().StringVar(&r.Output, "output", reconcile.OutputTable,
		"output format, one of table, tree, json or yaml.")
	cmdutil.FixDocs("chartsync", parent, c)
	r.Command = c
	return r
}

func NewCommand(ctx context.Context, parent string) *cobra.Command {
	return NewRunner(ctx, parent).Command
}

// Runner contains the run function
type Runner struct {
	ctx       context.Context
	Command   *cobra.Command
	TagSource string
	PageSize  int
	Output    string

	// NewLister creates the lister for the selected tag source.
	NewLister func(upstream.Source) (upstream.Lister, error)

	source upstream.Source
}

// Version is one row of the output.
type Version struct {
	Version semver.Version   `json:"version"`
	Line    releaseline.Line `json:"line"`
	// Latest is set for the newest version of its major.minor.
	Latest bool `json:"latest"`
}

func (r *Runner) preRunE(_ *cobra.Command, _ []string) error {
	const op errors.Op = "cmdversions.preRunE"
	source, err := upstream.ParseSource(r.TagSource)
	if err != nil {
		return errors.E(op, err)
	}
	if r.PageSize <= 0 {
		return errors.E(op, errors.InvalidParam, fmt.Errorf("page size must be positive, got %d", r.PageSize))
	}
	if err := cmdutil.ValidateOneOf("output", r.Output, outputs); err != nil {
		return errors.E(op, errors.InvalidParam, err)
	}
	r.source = source
	return nil
}

func (r *Runner) runE(c *cobra.Command, args []string) error {
	const op errors.Op = "cmdversions.runE"
	image := args[0]
	lister, err := r.NewLister(r.source)
	if err != nil {
		return errors.E(op, err)
	}
	tags, err := lister.ListTags(r.ctx, image, r.PageSize)
	if err != nil {
		return errors.E(op, errors.External, err)
	}
	cat := catalog.Build(tags)
	if skipped := cat.Skipped(); len(skipped) > 0 {
		printer.FromContextOrDie(r.ctx).Printf("Skipped %d tags that are not semantic versions\n", len(skipped))
	}
	if cat.Empty() {
		return errors.E(op, errors.Repo(image), errors.CatalogEmpty)
	}
	return printVersions(c.OutOrStdout(), r.Output, image, versions(cat))
}

// versions lists the catalog newest first.
func versions(cat *catalog.Catalog) []Version {
	ordered := cat.Ordered()
	out := make([]Version, 0, len(ordered))
	for i := len(ordered) - 1; i >= 0; i-- {
		v := ordered[i]
		latest, _ := cat.LatestFor(v.MajorMinor())
		out = append(out, Version{
			Version: v,
			Line:    releaseline.ForVersion(v),
			Latest:  latest.Equal(v),
		})
	}
	return out
}

func printVersions(w io.Writer, format, image string, vs []Version) error {
	const op errors.Op = "cmdversions.printVersions"
	switch format {
	case reconcile.OutputJSON:
		b, err := json.MarshalIndent(vs, "", "  ")
		if err != nil {
			return errors.E(op, errors.Internal, err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case reconcile.OutputYAML:
		b, err := yaml.Marshal(vs)
		if err != nil {
			return errors.E(op, errors.Internal, err)
		}
		_, err = w.Write(b)
		return err
	case OutputTree:
		_, err := io.WriteString(w, tree(image, vs).String())
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"VERSION", "LINE", "LATEST"})
	for _, v := range vs {
		latest := ""
		if v.Latest {
			latest = "*"
		}
		t.AppendRow(table.Row{v.Version.String(), v.Line.String(), latest})
	}
	t.Render()
	return nil
}

// tree groups vs, newest first, below one branch per release line.
func tree(image string, vs []Version) treeprint.Tree {
	root := treeprint.New()
	root.SetValue(image)
	branches := map[string]treeprint.Tree{}
	for _, v := range vs {
		name := v.Line.String()
		branch, found := branches[name]
		if !found {
			branch = root.AddBranch(name)
			branches[name] = branch
		}
		branch.AddNode(v.Version.String())
	}
	return root
}
