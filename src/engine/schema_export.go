package engine

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/multierr"
)

const jsonSchemaDraft = "http://json-schema.org/draft-07/schema#"

// JSONSchema exports the schema as a draft-07 JSON Schema document.
func (s *Schema) JSONSchema() map[string]interface{} {
	doc := s.objectJSONSchema()
	doc["$schema"] = jsonSchemaDraft
	return doc
}

func (s *Schema) objectJSONSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(s.names))
	required := make([]interface{}, 0, len(s.names))
	for _, name := range s.names {
		node := s.nodes[name]
		prop := nodeJSONSchema(node)
		if desc := s.descriptions[name]; desc != "" {
			prop["description"] = desc
		}
		properties[name] = prop
		if !acceptsAbsent(node) {
			required = append(required, name)
		}
	}

	doc := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func nodeJSONSchema(n Node) map[string]interface{} {
	switch node := n.(type) {
	case StringNode:
		return map[string]interface{}{"type": "string"}
	case NumberNode:
		return map[string]interface{}{"type": "number"}
	case BooleanNode:
		return map[string]interface{}{"type": "boolean"}
	case DateNode:
		// Dates travel as formatted strings or epoch milliseconds in JSON.
		return map[string]interface{}{"type": []interface{}{"string", "number"}}
	case EnumNode:
		values := make([]interface{}, len(node.Values))
		for i, v := range node.Values {
			values[i] = v
		}
		return map[string]interface{}{"type": "string", "enum": values}
	case ArrayNode:
		return map[string]interface{}{"type": "array", "items": nodeJSONSchema(node.Element)}
	case ObjectNode:
		return node.Schema.objectJSONSchema()
	case OptionalNode:
		return nullable(nodeJSONSchema(node.Inner))
	}
	return map[string]interface{}{}
}

// nullable widens prop to also accept null, matching optional nodes that
// treat a present null as absent.
func nullable(prop map[string]interface{}) map[string]interface{} {
	if len(prop) == 0 {
		return prop
	}
	return map[string]interface{}{
		"anyOf": []interface{}{prop, map[string]interface{}{"type": "null"}},
	}
}

// CompileJSONSchema loads the exported JSON Schema into a gojsonschema
// validator.
func (s *Schema) CompileJSONSchema() (*gojsonschema.Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(s.JSONSchema()))
	if err != nil {
		return nil, fmt.Errorf("compile json schema: %w", err)
	}
	return compiled, nil
}

// ValidateJSONDocument validates a raw JSON document against the exported
// JSON Schema of s. Failures are returned as *ValidationError values
// combined with multierr.
func ValidateJSONDocument(s *Schema, raw []byte) error {
	compiled, err := s.CompileJSONSchema()
	if err != nil {
		return err
	}

	result, err := compiled.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate json document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var errs error
	for _, re := range result.Errors() {
		path := re.Field()
		if path == "(root)" {
			path = ""
		}
		errs = multierr.Append(errs, &ValidationError{Path: path, Reason: re.Description()})
	}
	return errs
}
