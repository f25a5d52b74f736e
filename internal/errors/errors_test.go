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

package errors

import (
	goerrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	baseErr := goerrors.New("base error")

	e := &Error{
		Op:   "executor.apply",
		Line: "v1.2",
		Repo: "origin",
		Kind: Conflict,
		Err:  baseErr,
	}

	got := e.Error()
	wantSubstrings := []string{
		"executor.apply",
		"line v1.2",
		"repo origin",
		"remote state conflict",
		"base error",
	}

	for _, substr := range wantSubstrings {
		if !strings.Contains(got, substr) {
			t.Errorf("Expected error string to contain %q, got: %q", substr, got)
		}
	}
}

func TestE_dedupesWrappedFields(t *testing.T) {
	inner := E(Op("gitutil.push"), Line("main"), Git, "rejected")
	outer := E(Op("executor.apply"), Line("main"), Git, inner)

	var e *Error
	if !assert.True(t, As(outer, &e)) {
		t.FailNow()
	}
	var wrapped *Error
	if !assert.True(t, As(e.Err, &wrapped)) {
		t.FailNow()
	}
	assert.Equal(t, Line(""), wrapped.Line)
	assert.Equal(t, Kind(0), wrapped.Kind)
	assert.Equal(t, Op("gitutil.push"), wrapped.Op)
	assert.Equal(t, "executor.apply: line main: git error:\n\tgitutil.push: rejected", outer.Error())
}

func TestIsAndKindOf(t *testing.T) {
	err := E(Op("outer"), E(Op("inner"), Conflict, "diverged"))

	assert.True(t, Is(err, Conflict))
	assert.False(t, Is(err, OCI))
	assert.Equal(t, Conflict, KindOf(err))
	assert.Equal(t, Other, KindOf(goerrors.New("plain")))
	assert.False(t, Is(nil, Conflict))
}

func TestE_panicsWithoutArgs(t *testing.T) {
	assert.Panics(t, func() { _ = E() })
}
