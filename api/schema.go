// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const researchRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["query"],
  "additionalProperties": false,
  "properties": {
    "query":     {"type": "string", "minLength": 1},
    "format":    {"type": "string", "enum": ["markdown", "html", "json"]},
    "length":    {"type": "string", "enum": ["brief", "standard", "comprehensive"]},
    "providers": {"type": "array", "items": {"type": "string"}},
    "agents":    {"type": "array", "items": {"type": "string"}},
    "yearStart": {"type": ["integer", "null"], "minimum": 1600, "maximum": 9999},
    "yearEnd":   {"type": ["integer", "null"], "minimum": 1600, "maximum": 9999},
    "year_start": {"type": ["integer", "null"], "minimum": 1600, "maximum": 9999},
    "year_end":   {"type": ["integer", "null"], "minimum": 1600, "maximum": 9999}
  }
}`

const jobRefSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "jobId":       {"type": "string", "minLength": 1},
    "research_id": {"type": "string", "minLength": 1}
  },
  "anyOf": [{"required": ["jobId"]}, {"required": ["research_id"]}]
}`

type schemas struct {
	research *jsonschema.Schema
	jobRef   *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	research, err := compileSchema("research.json", researchRequestSchema)
	if err != nil {
		return nil, err
	}
	jobRef, err := compileSchema("jobref.json", jobRefSchema)
	if err != nil {
		return nil, err
	}
	return &schemas{research: research, jobRef: jobRef}, nil
}

func compileSchema(name, src string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader([]byte(src))); err != nil {
		return nil, fmt.Errorf("failed to add schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return schema, nil
}

// decodeValidated checks raw against schema and then decodes it into dst.
func decodeValidated(schema *jsonschema.Schema, raw []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", errBadRequest, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
