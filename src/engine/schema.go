package engine

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/multierr"
)

// Schema is a compiled document shape. Field order follows the definition
// tree.
type Schema struct {
	names        []string
	nodes        map[string]Node
	descriptions map[string]string
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{
		nodes:        make(map[string]Node),
		descriptions: make(map[string]string),
	}
}

// Set adds a field. Setting an existing name replaces its node and keeps the
// original position.
func (s *Schema) Set(name string, node Node, description string) {
	if _, exists := s.nodes[name]; !exists {
		s.names = append(s.names, name)
	}
	s.nodes[name] = node
	if description != "" {
		s.descriptions[name] = description
	} else {
		delete(s.descriptions, name)
	}
}

// Fields returns the field names in order.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Field returns the node of a field.
func (s *Schema) Field(name string) (Node, bool) {
	n, ok := s.nodes[name]
	return n, ok
}

// Description returns the description of a field, if any.
func (s *Schema) Description(name string) string {
	return s.descriptions[name]
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.names)
}

// Validate checks a document against the schema. Every failing field adds a
// *ValidationError; use multierr.Errors to list them.
func (s *Schema) Validate(doc interface{}) error {
	fields, ok := asDocument(doc)
	if !ok {
		return fmt.Errorf("%w: received %T", ErrNotAnObject, doc)
	}

	var errs error
	for _, name := range s.names {
		node := s.nodes[name]
		value, present := fields[name]
		if !present {
			if !acceptsAbsent(node) {
				errs = multierr.Append(errs, &ValidationError{Path: name, Reason: "required"})
			}
			continue
		}
		errs = multierr.Append(errs, prefixErrors(name, validatePresent(node, value)))
	}
	return errs
}

func asDocument(doc interface{}) (map[string]interface{}, bool) {
	switch d := doc.(type) {
	case map[string]interface{}:
		return d, true
	case bson.M:
		return d, true
	case bson.D:
		return d.Map(), true
	case *bson.D:
		if d == nil {
			return nil, false
		}
		return d.Map(), true
	}
	return nil, false
}
