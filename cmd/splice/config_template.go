package main

import (
	"bytes"
	"fmt"
	"text/template"
)

type configTemplateData struct {
	Name        string
	Inputs      string
	ExtractFile string
	MergeFile   string
	OutputName  string
}

const defaultConfigTemplate = `# splice workflow
name: {{.Name}}
description: Merge every input into one JSON document

# Globs are relative to this file. Files passed on the command line win.
inputs:
  - {{printf "%q" .Inputs}}

extract:
  file: {{.ExtractFile}}

merge:
  file: {{.MergeFile}}

output:
  name: {{.OutputName}}
  # "-" writes the artifact to stdout.
  dir: ${SPLICE_OUT_DIR:-.}

# Available to scripts through splice.Var.
vars: {}

# Leave empty to allow any standard library import.
allowed_imports: []
`

var configTemplate = template.Must(template.New("splice.yaml").Parse(defaultConfigTemplate))

func renderConfigTemplate(data configTemplateData) (string, error) {
	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render config template: %w", err)
	}
	return buf.String(), nil
}
