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

// Package errors defines the error handling used by the chartsync codebase.
package errors

import (
	goerrors "errors"
	"fmt"
	"strings"
)

// Error is an implementation of the error interface used in the chartsync
// codebase.
// It is based on the design in https://commandcenter.blogspot.com/2017/12/error-handling-in-upspin.html
type Error struct {
	// Op is the operation being performed, for ex. executor.apply, gitutil.push
	Op Op

	// Line is the release line the operation was scoped to, if any.
	Line Line

	// Repo is the remote git repository or image involved, if any.
	Repo Repo

	// Kind refers to class of errors
	Kind Kind

	// Err refers to wrapped error (if any)
	Err error
}

func (e *Error) Error() string {
	b := new(strings.Builder)

	if e.Op != "" {
		pad(b, ": ")
		b.WriteString(string(e.Op))
	}

	if e.Line != "" {
		pad(b, ": ")
		b.WriteString("line ")
		b.WriteString(string(e.Line))
	}

	if e.Repo != "" {
		pad(b, ": ")
		b.WriteString("repo ")
		b.WriteString(string(e.Repo))
	}

	if e.Kind != 0 {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}

	if e.Err != nil {
		if wrappedErr, ok := e.Err.(*Error); ok {
			if !wrappedErr.Zero() {
				pad(b, ":\n\t")
				b.WriteString(wrappedErr.Error())
			}
		} else {
			pad(b, ": ")
			b.WriteString(e.Err.Error())
		}
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// pad appends given str to the string buffer.
func pad(b *strings.Builder, str string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(str)
}

func (e *Error) Zero() bool {
	return e.Op == "" && e.Line == "" && e.Repo == "" && e.Kind == 0 && e.Err == nil
}

// Op describes the operation being performed.
type Op string

// Line is the display name of a release line, e.g. "main" or "v1.2".
type Line string

// Repo describes a remote repository or image reference.
type Repo string

// Kind describes the class of errors encountered.
type Kind int

const (
	Other          Kind = iota // Unclassified. Will not be printed.
	Exist                      // Item already exists.
	Internal                   // Internal error.
	InvalidParam               // Value is not valid.
	MissingParam               // Required value is missing or empty.
	Git                        // Errors from Git
	IO                         // Error doing IO operations
	OCI                        // Errors from the OCI registry
	InvalidVersion             // A string is not a semantic version.
	CatalogEmpty               // No valid versions found upstream.
	CrossBoundary              // Update would leave the major.minor of a maintenance line.
	Conflict                   // Remote state diverged from the local state.
	External                   // A collaborator failed unexpectedly.
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other error"
	case Exist:
		return "item already exist"
	case Internal:
		return "internal error"
	case InvalidParam:
		return "invalid parameter value"
	case MissingParam:
		return "missing parameter value"
	case Git:
		return "git error"
	case IO:
		return "IO error"
	case OCI:
		return "OCI error"
	case InvalidVersion:
		return "invalid version"
	case CatalogEmpty:
		return "no valid versions found"
	case CrossBoundary:
		return "update crosses release line boundary"
	case Conflict:
		return "remote state conflict"
	case External:
		return "external command failure"
	}
	return "unknown kind"
}

// E builds an *Error from its arguments. There must be at least one
// argument or E panics. The type of each argument determines its meaning.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("errors.E must have at least one argument")
	}

	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Line:
			e.Line = a
		case Repo:
			e.Repo = a
		case Kind:
			e.Kind = a
		case *Error:
			cp := *a
			e.Err = &cp
		case error:
			e.Err = a
		case string:
			e.Err = goerrors.New(a)
		default:
			panic(fmt.Errorf("unknown type %T for value %v in call to error.E", a, a))
		}
	}

	wrappedErr, ok := e.Err.(*Error)
	if !ok {
		return e
	}

	if e.Line == wrappedErr.Line {
		wrappedErr.Line = ""
	}

	if e.Repo == wrappedErr.Repo {
		wrappedErr.Repo = ""
	}

	if e.Op == wrappedErr.Op {
		wrappedErr.Op = ""
	}

	if e.Kind == wrappedErr.Kind {
		wrappedErr.Kind = 0
	}

	return e
}

// Is reports whether any error in err's chain is of the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// KindOf returns the outermost non-Other kind in err's chain.
func KindOf(err error) Kind {
	for err != nil {
		var e *Error
		if !As(err, &e) {
			return Other
		}
		if e.Kind != Other {
			return e.Kind
		}
		err = e.Err
	}
	return Other
}

// As finds the first error in err's chain that matches target, and if so,
// sets target to that error value and returns true.
func As(err error, target interface{}) bool {
	return goerrors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return goerrors.New(text)
}
