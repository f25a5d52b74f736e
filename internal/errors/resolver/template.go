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

package resolver

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// helperTemplates are available to every message template.
var helperTemplates = []string{
	// ExecOutputDetails prints the output of an external command, taken from
	// .stdout and .stderr.
	`
{{- define "ExecOutputDetails" }}
{{- if or (gt (len .stdout) 0) (gt (len .stderr) 0)}}
{{ printf "\nDetails:" }}
{{- end }}

{{- if gt (len .stdout) 0 }}
{{ printf "%s" .stdout }}
{{- end }}

{{- if gt (len .stderr) 0 }}
{{ printf "%s" .stderr }}
{{- end }}
{{ end }}
`,
	// NestedErrDetails prints the error wrapped by .err.
	`
{{- define "NestedErrDetails" }}
{{- if .err  }}
{{- if .err.Err }}
{{- if gt (len .err.Err.Error) 0 }}
{{ printf "\nDetails:" }}
{{ printf "%s" .err.Err.Error }}
{{- end }}
{{- end }}
{{- end }}
{{ end }}
`,
	// RerunHint tells the user how to recover from a concurrent change.
	`
{{- define "RerunHint" -}}
Run chartsync again to reconcile against the new remote state.
{{- end }}
`,
}

var baseTemplate = func() *template.Template {
	tmpl := template.New("base")
	for _, h := range helperTemplates {
		tmpl = template.Must(tmpl.Parse(h))
	}
	return tmpl
}()

// ExecuteTemplate renders text with data. text may use the helper
// templates. It panics if the template is invalid.
func ExecuteTemplate(text string, data interface{}) string {
	tmpl := template.Must(baseTemplate.Clone())
	template.Must(tmpl.Parse(text))

	var b bytes.Buffer
	if err := tmpl.Execute(&b, data); err != nil {
		panic(fmt.Errorf("error executing template: %w", err))
	}
	return strings.TrimSpace(b.String())
}
