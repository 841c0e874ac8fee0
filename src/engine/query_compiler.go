package engine

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// QueryFragment is a filter predicate on one field path, keyed with the
// store's $-operators.
type QueryFragment = bson.M

// CompileQueryFragment lowers (fieldPath, operator, rawValue) into a filter
// fragment. rawValue is coerced according to elementType; array types coerce
// by their element type.
//
//	CompileQueryFragment("age", "gte", "18", "number")
//	=> {"age": {"$gte": 18}}
func CompileQueryFragment(fieldPath, operator string, rawValue interface{}, elementType ElementType) (QueryFragment, error) {
	op := Operator(operator)

	if op == "" || op == OpEq {
		return QueryFragment{fieldPath: coerceValue(elementType, rawValue)}, nil
	}

	switch op {
	case OpSearch:
		return patternFragment(fieldPath, coerceValue(elementType, rawValue), elementType, true), nil
	case OpRegex:
		return patternFragment(fieldPath, coerceValue(elementType, rawValue), elementType, false), nil
	}

	symbol, ok := operatorSymbols[op]
	if !ok {
		return nil, &UnsupportedOperatorError{Operator: operator}
	}

	if op == OpIn || op == OpNin {
		return QueryFragment{fieldPath: bson.M{symbol: coerceList(elementType, rawValue)}}, nil
	}

	return QueryFragment{fieldPath: bson.M{symbol: coerceValue(elementType, rawValue)}}, nil
}

// patternFragment builds a $regex predicate. Case-insensitive searches on
// array fields test the pattern against each element; plain regex matches
// are left to the store's array semantics.
func patternFragment(fieldPath string, pattern interface{}, elementType ElementType, caseInsensitive bool) QueryFragment {
	predicate := bson.M{keyRegex: pattern}
	if !caseInsensitive {
		return QueryFragment{fieldPath: predicate}
	}
	predicate[keyOptions] = "i"
	if elementType.IsArray() {
		return QueryFragment{fieldPath: bson.M{keyElemMatch: predicate}}
	}
	return QueryFragment{fieldPath: predicate}
}

// coerceList turns rawValue into the value list of $in / $nin.
func coerceList(elementType ElementType, rawValue interface{}) []interface{} {
	if items, ok := sequenceItems(rawValue); ok {
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = coerceValue(elementType, item)
		}
		return out
	}

	text, isString := rawValue.(string)
	if !isString || !strings.Contains(text, ",") {
		text = stringify(coerceValue(elementType, rawValue))
	}

	parts := strings.Split(text, ",")
	out := make([]interface{}, len(parts))
	for i, part := range parts {
		out[i] = coerceValue(elementType, strings.TrimSpace(part))
	}
	return out
}

// coerceValue converts a raw query value to the element type of elementType.
func coerceValue(elementType ElementType, value interface{}) interface{} {
	switch elementType.Element() {
	case TypeNumber:
		return coerceNumber(value)
	case TypeBoolean:
		return coerceBoolean(value)
	case TypeDate:
		t, ok := parseDate(value)
		if !ok {
			return time.Time{}
		}
		return t
	default:
		return stringify(value)
	}
}

// ExtJSON renders a fragment as MongoDB Extended JSON.
func ExtJSON(fragment QueryFragment, canonical bool) ([]byte, error) {
	return bson.MarshalExtJSON(fragment, canonical, false)
}
