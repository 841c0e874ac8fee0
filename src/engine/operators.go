package engine

import "strings"

// ElementType describes the runtime shape of a schema node.
type ElementType string

const (
	TypeString       ElementType = "string"
	TypeNumber       ElementType = "number"
	TypeBoolean      ElementType = "boolean"
	TypeDate         ElementType = "date"
	TypeStringArray  ElementType = "string[]"
	TypeNumberArray  ElementType = "number[]"
	TypeBooleanArray ElementType = "boolean[]"
	TypeDateArray    ElementType = "date[]"
	TypeObjectArray  ElementType = "object[]"
	TypeArray        ElementType = "array"
	TypeObject       ElementType = "object"
	TypeUnknown      ElementType = "unknown"
)

// IsArray reports whether t is an array tag ("x[]").
func (t ElementType) IsArray() bool {
	return strings.HasSuffix(string(t), "[]")
}

// Element returns the element tag of an array tag, or t itself.
func (t ElementType) Element() ElementType {
	return ElementType(strings.TrimSuffix(string(t), "[]"))
}

// Operator is a query operator name as exposed to callers ("eq", "gt", ...).
type Operator string

const (
	OpEq     Operator = "eq"
	OpNe     Operator = "ne"
	OpGt     Operator = "gt"
	OpGte    Operator = "gte"
	OpLt     Operator = "lt"
	OpLte    Operator = "lte"
	OpIn     Operator = "in"
	OpNin    Operator = "nin"
	OpRegex  Operator = "regex"
	OpSearch Operator = "search"
)

// Store operator keys of the downstream document store.
const (
	keyEq        = "$eq"
	keyNe        = "$ne"
	keyGt        = "$gt"
	keyGte       = "$gte"
	keyLt        = "$lt"
	keyLte       = "$lte"
	keyIn        = "$in"
	keyNin       = "$nin"
	keyRegex     = "$regex"
	keyOptions   = "$options"
	keyElemMatch = "$elemMatch"
)

// OperatorTable lists the operators each element type supports. Types that
// are not listed support DefaultOperators. Read only.
var OperatorTable = map[ElementType][]Operator{
	TypeString:       {OpEq, OpNe, OpIn, OpNin, OpRegex, OpSearch},
	TypeNumber:       {OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin},
	TypeBoolean:      {OpEq, OpNe},
	TypeDate:         {OpEq, OpNe, OpGt, OpGte, OpLt, OpLte},
	TypeStringArray:  {OpEq, OpNe, OpIn, OpNin, OpRegex, OpSearch},
	TypeNumberArray:  {OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin},
	TypeBooleanArray: {OpEq, OpNe, OpIn, OpNin},
	TypeDateArray:    {OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin},
}

// DefaultOperators is used for every type missing from OperatorTable.
var DefaultOperators = []Operator{OpEq}

// operatorSymbols maps operator names to store operator keys.
var operatorSymbols = map[Operator]string{
	OpEq:     keyEq,
	OpNe:     keyNe,
	OpGt:     keyGt,
	OpGte:    keyGte,
	OpLt:     keyLt,
	OpLte:    keyLte,
	OpIn:     keyIn,
	OpNin:    keyNin,
	OpRegex:  keyRegex,
	OpSearch: keyRegex,
}

// SupportedOperators returns a fresh copy of the operators t supports.
func SupportedOperators(t ElementType) []Operator {
	ops, ok := OperatorTable[t]
	if !ok {
		ops = DefaultOperators
	}
	out := make([]Operator, len(ops))
	copy(out, ops)
	return out
}
