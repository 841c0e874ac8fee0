package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Node is one compiled field of a Schema.
type Node interface {
	// Validate checks a present value against the node.
	Validate(value interface{}) error
	// Describe returns the element type of the node.
	Describe() ElementType
}

// nestedNode is implemented by nodes that carry a child schema.
type nestedNode interface {
	NestedSchema() *Schema
}

// absentNode is implemented by nodes that accept a missing value.
type absentNode interface {
	acceptsAbsent() bool
}

// StringNode accepts strings.
type StringNode struct{}

func (StringNode) Validate(value interface{}) error {
	if _, ok := value.(string); !ok {
		return invalidType("string", value)
	}
	return nil
}

func (StringNode) Describe() ElementType { return TypeString }

// NumberNode accepts numbers other than NaN.
type NumberNode struct{}

func (NumberNode) Validate(value interface{}) error {
	f, ok := toNumber(value)
	if !ok {
		return invalidType("number", value)
	}
	if math.IsNaN(f) {
		return &ValidationError{Reason: "expected number, received NaN"}
	}
	return nil
}

func (NumberNode) Describe() ElementType { return TypeNumber }

// BooleanNode accepts booleans.
type BooleanNode struct{}

func (BooleanNode) Validate(value interface{}) error {
	if _, ok := value.(bool); !ok {
		return invalidType("boolean", value)
	}
	return nil
}

func (BooleanNode) Describe() ElementType { return TypeBoolean }

// DateNode accepts anything that can be coerced to a valid date.
type DateNode struct{}

func (DateNode) Validate(value interface{}) error {
	if _, ok := parseDate(value); !ok {
		return &ValidationError{Reason: fmt.Sprintf("invalid date %q", stringify(value))}
	}
	return nil
}

func (DateNode) Describe() ElementType { return TypeDate }

// EnumNode accepts one of a closed set of strings.
type EnumNode struct {
	Values []string
}

func (n EnumNode) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return invalidType("string", value)
	}
	for _, v := range n.Values {
		if v == s {
			return nil
		}
	}
	return &ValidationError{
		Reason: fmt.Sprintf("invalid enum value %q, expected one of [%s]", s, strings.Join(n.Values, ", ")),
	}
}

func (EnumNode) Describe() ElementType { return TypeString }

// AnyNode accepts every value, including a missing one.
type AnyNode struct{}

func (AnyNode) Validate(interface{}) error { return nil }

func (AnyNode) Describe() ElementType { return TypeUnknown }

func (AnyNode) acceptsAbsent() bool { return true }

// ArrayNode accepts slices whose elements all satisfy Element.
type ArrayNode struct {
	Element Node
}

func (n ArrayNode) Validate(value interface{}) error {
	items, ok := sequenceItems(value)
	if !ok {
		return invalidType("array", value)
	}
	var errs error
	for i, item := range items {
		errs = multierr.Append(errs, prefixErrors(strconv.Itoa(i), validatePresent(n.Element, item)))
	}
	return errs
}

func (n ArrayNode) Describe() ElementType {
	switch n.Element.(type) {
	case StringNode, EnumNode:
		return TypeStringArray
	case NumberNode:
		return TypeNumberArray
	case BooleanNode:
		return TypeBooleanArray
	case DateNode:
		return TypeDateArray
	case ObjectNode:
		return TypeObjectArray
	}
	return TypeArray
}

// NestedSchema returns the element schema of an array of objects.
func (n ArrayNode) NestedSchema() *Schema {
	if obj, ok := n.Element.(ObjectNode); ok {
		return obj.Schema
	}
	return nil
}

// ObjectNode accepts documents matching Schema.
type ObjectNode struct {
	Schema *Schema
}

func (n ObjectNode) Validate(value interface{}) error {
	return n.Schema.Validate(value)
}

func (ObjectNode) Describe() ElementType { return TypeObject }

func (n ObjectNode) NestedSchema() *Schema { return n.Schema }

// OptionalNode lets Inner be absent. A nil value counts as absent.
type OptionalNode struct {
	Inner Node
}

func (n OptionalNode) Validate(value interface{}) error {
	if value == nil {
		return nil
	}
	return n.Inner.Validate(value)
}

func (n OptionalNode) Describe() ElementType { return n.Inner.Describe() }

func (n OptionalNode) NestedSchema() *Schema {
	if nested, ok := n.Inner.(nestedNode); ok {
		return nested.NestedSchema()
	}
	return nil
}

func (OptionalNode) acceptsAbsent() bool { return true }

func acceptsAbsent(n Node) bool {
	a, ok := n.(absentNode)
	return ok && a.acceptsAbsent()
}

// validatePresent validates a value that exists in the document. nil is only
// acceptable to nodes that accept absence.
func validatePresent(n Node, value interface{}) error {
	if value == nil {
		if acceptsAbsent(n) {
			return nil
		}
		return &ValidationError{Reason: "required"}
	}
	return n.Validate(value)
}

func invalidType(expected string, value interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf("expected %s, received %T", expected, value)}
}

// prefixErrors prepends segment to the path of every ValidationError in err.
func prefixErrors(segment string, err error) error {
	if err == nil {
		return nil
	}
	var out error
	for _, e := range multierr.Errors(err) {
		if ve, ok := e.(*ValidationError); ok {
			path := segment
			if ve.Path != "" {
				path = segment + "." + ve.Path
			}
			e = &ValidationError{Path: path, Reason: ve.Reason}
		}
		out = multierr.Append(out, e)
	}
	return out
}
