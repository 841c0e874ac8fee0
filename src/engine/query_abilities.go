package engine

import (
	"fmt"
	"math"
	"sort"
)

// Unbounded is the maxDepth that walks every nesting level.
const Unbounded = math.MaxInt

// Ability lists what can be queried on one field path.
type Ability struct {
	Type               ElementType `json:"type" bson:"type"`
	SupportedOperators []Operator  `json:"supportedOperators" bson:"supportedOperators"`
}

// QueryAbilities maps dot-joined field paths to their abilities.
type QueryAbilities map[string]Ability

// Paths returns the field paths in lexical order.
func (q QueryAbilities) Paths() []string {
	paths := make([]string, 0, len(q))
	for p := range q {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Supports reports whether op may be used on path.
func (q QueryAbilities) Supports(path string, op Operator) bool {
	ability, ok := q[path]
	if !ok {
		return false
	}
	for _, supported := range ability.SupportedOperators {
		if supported == op {
			return true
		}
	}
	return false
}

// Check returns the ability of path, or an error wrapping
// ErrFieldNotQueryable or ErrOperatorNotSupported. An empty operator means eq.
func (q QueryAbilities) Check(path string, op Operator) (Ability, error) {
	ability, ok := q[path]
	if !ok {
		return Ability{}, fmt.Errorf("%w: %s", ErrFieldNotQueryable, path)
	}
	if op == "" {
		op = OpEq
	}
	if !q.Supports(path, op) {
		return Ability{}, fmt.Errorf("%w: %s on %s (%s)", ErrOperatorNotSupported, op, path, ability.Type)
	}
	return ability, nil
}

// DeriveQueryAbilities lists, for every leaf path of schema, its element type
// and supported operators. Fields nested maxDepth or more levels deep are
// left out.
func DeriveQueryAbilities(schema *Schema, maxDepth int) QueryAbilities {
	result := make(QueryAbilities)
	deriveAbilities(result, schema, maxDepth, "", 0)
	return result
}

func deriveAbilities(result QueryAbilities, schema *Schema, maxDepth int, pathPrefix string, currentDepth int) {
	if schema == nil || currentDepth >= maxDepth {
		return
	}

	for _, name := range schema.names {
		node := schema.nodes[name]
		elementType := node.Describe()

		fullKey := name
		if pathPrefix != "" {
			fullKey = pathPrefix + "." + name
		}

		if elementType == TypeObject {
			deriveAbilities(result, nestedSchema(node), maxDepth, fullKey, currentDepth+1)
			continue
		}

		result[fullKey] = Ability{
			Type:               elementType,
			SupportedOperators: SupportedOperators(elementType),
		}

		// Arrays of objects stay a leaf, their element fields are listed too.
		if elementType == TypeObjectArray {
			deriveAbilities(result, nestedSchema(node), maxDepth, fullKey, currentDepth+1)
		}
	}
}

func nestedSchema(n Node) *Schema {
	if nested, ok := n.(nestedNode); ok {
		return nested.NestedSchema()
	}
	return nil
}
