/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package template

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"labeldesigner/internal/domain"
)

//go:embed template.schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Schema returns the JSON schema template documents must conform to.
func Schema() []byte { return append([]byte(nil), schemaJSON...) }

// Validate checks raw JSON against the template schema. Violations are
// reported as a single ValidationError listing every schema error.
func Validate(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &domain.ValidationError{Reason: fmt.Sprintf("template is not valid JSON: %v", err)}
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return &domain.ValidationError{Field: "template", Reason: strings.Join(msgs, "; ")}
}

// Decode validates raw and unmarshals it into a template document.
func Decode(raw []byte) (domain.TemplateDocument, error) {
	var doc domain.TemplateDocument
	if err := Validate(raw); err != nil {
		return doc, err
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode template: %w", err)
	}
	if doc.Elements == nil {
		doc.Elements = []domain.TemplateElement{}
	}
	return doc, nil
}

// Encode renders doc as indented JSON.
func Encode(doc domain.TemplateDocument) ([]byte, error) {
	if doc.Elements == nil {
		doc.Elements = []domain.TemplateElement{}
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}
	return b, nil
}
