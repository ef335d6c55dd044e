package script

// DefaultExtract parses every file as JSON.
const DefaultExtract = `package main

import (
	"encoding/json"

	"splice"
)

// Extract is called once per selected file, concurrently.
func Extract(file splice.File, index int, all []splice.File) (interface{}, error) {
	data, err := file.Bytes()
	if err != nil {
		return nil, err
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
`

// DefaultMerge writes one JSON object keyed by file name.
const DefaultMerge = `package main

import (
	"encoding/json"

	"splice"
)

// Merge is called once with every record, in selection order.
func Merge(records []splice.Record) (interface{}, error) {
	out := map[string]interface{}{}
	for _, r := range records {
		out[r.File.Name] = r.Data
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
`
