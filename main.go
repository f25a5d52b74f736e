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

//go:generate $GOBIN/mdtogo docs internal/docs/generated/overview --license=none
//go:generate $GOBIN/mdtogo docs internal/docs/generated/syncdocs --recursive=true --license=none
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	goerrors "github.com/go-errors/errors"
	"github.com/kptdev/chartsync/internal/errors"
	"github.com/kptdev/chartsync/internal/errors/resolver"
	"github.com/kptdev/chartsync/internal/util/cmdutil"
	"github.com/kptdev/chartsync/run"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func main() {
	os.Exit(runMain())
}

// runMain does the initial setup in order to run chartsync. The return value
// from this function will be the exit code.
func runMain() int {
	ctx := context.Background()

	// Enable commandline flags for klog.
	klog.InitFlags(nil)
	// By default klog will log to stderr. Set this to false so the
	// --log_file flag can redirect it.
	_ = flag.Set("logtostderr", "true")
	defer klog.Flush()

	cmd := run.GetMain(ctx)

	err := cmd.Execute()
	if err != nil {
		return handleErr(cmd, err)
	}
	return 0
}

// handleErr takes care of printing an error message for a given error.
func handleErr(cmd *cobra.Command, err error) int {
	var exitErr *cmdutil.ExitCodeError
	if errors.As(err, &exitErr) {
		// The failures are already part of the summary.
		return exitErr.Code
	}

	if cmdutil.PrintErrorStacktrace() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", goerrors.Wrap(err, 1).ErrorStack())
	}

	// First attempt to see if we can resolve the error into a specific
	// error message.
	if re, resolved := resolver.ResolveError(err); resolved {
		if re.Message != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s \n", re.Message)
		}
		return re.ExitCode
	}

	// Then try to see if it is of type *errors.Error
	var chartsyncErr *errors.Error
	if errors.As(err, &chartsyncErr) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s \n", chartsyncErr.Error())
		return 1
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s \n", err.Error())
	return 1
}
