// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package shuttle

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/xeipuuv/gojsonschema"
)

// NormalizeSchema ensures object schemas carry a non-nil properties map.
// Some providers reject object schemas without one.
func NormalizeSchema(schema *JSONSchema) *JSONSchema {
	if schema == nil {
		return nil
	}
	if schema.Type == "object" {
		if schema.Properties == nil {
			schema.Properties = make(map[string]*JSONSchema)
		}
		for key, prop := range schema.Properties {
			schema.Properties[key] = NormalizeSchema(prop)
		}
	}
	if schema.Type == "array" && schema.Items != nil {
		schema.Items = NormalizeSchema(schema.Items)
	}
	return schema
}

// ValidateArguments checks args against schema. It returns one message per
// violation, or nil when args are valid.
func ValidateArguments(schema *JSONSchema, args map[string]any) ([]string, error) {
	if schema == nil {
		return nil, nil
	}
	if args == nil {
		args = map[string]any{}
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema.ToMap()),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}

// normalizeArguments renames argument keys to the schema's spelling when they
// differ only in case or separator style (tableName -> table_name).
func normalizeArguments(schema *JSONSchema, args map[string]any) map[string]any {
	if len(args) == 0 || schema == nil || len(schema.Properties) == 0 {
		return args
	}
	schemaKeys := make(map[string]string, len(schema.Properties))
	for key := range schema.Properties {
		schemaKeys[toLowerUnderscore(key)] = key
	}
	normalized := make(map[string]any, len(args))
	for key, value := range args {
		if schemaKey, ok := schemaKeys[toLowerUnderscore(key)]; ok {
			normalized[schemaKey] = value
		} else {
			normalized[key] = value
		}
	}
	return normalized
}

// toLowerUnderscore converts camelCase, PascalCase and kebab-case to snake_case.
func toLowerUnderscore(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '-':
			b.WriteRune('_')
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
