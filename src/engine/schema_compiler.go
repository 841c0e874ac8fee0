package engine

import (
	"encoding/json"

	"fieldmapper/src/models"

	"go.uber.org/zap"
)

// DefaultMaxLevel bounds how deep embedded documents are compiled.
const DefaultMaxLevel = 3

// SchemaCompiler turns field definition trees into schemas. Degradations
// (unknown types, missing sub-definitions, depth cut-offs) are never errors;
// they are logged at debug level.
type SchemaCompiler struct {
	MaxLevel int
	logger   *zap.SugaredLogger
}

// NewSchemaCompiler creates a compiler. A nil logger disables logging.
func NewSchemaCompiler(maxLevel int, logger *zap.SugaredLogger) *SchemaCompiler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SchemaCompiler{MaxLevel: maxLevel, logger: logger}
}

// CompileSchema compiles root with a non-logging compiler.
func CompileSchema(root *models.FieldDefinition, maxLevel int) *Schema {
	return NewSchemaCompiler(maxLevel, nil).Compile(root)
}

// CompileSchemaFromString decodes a JSON definition tree and compiles it.
func CompileSchemaFromString(definition string, maxLevel int) (*Schema, error) {
	return NewSchemaCompiler(maxLevel, nil).CompileString(definition)
}

// CompileString decodes a JSON definition tree and compiles it. Decoding
// failures are returned as *ParseError.
func (c *SchemaCompiler) CompileString(definition string) (*Schema, error) {
	var root models.FieldDefinition
	if err := json.Unmarshal([]byte(definition), &root); err != nil {
		c.logger.Debugw("Field definition could not be decoded", "error", err)
		return nil, &ParseError{Err: err}
	}
	return c.Compile(&root), nil
}

// Compile builds the schema of root's fields.
func (c *SchemaCompiler) Compile(root *models.FieldDefinition) *Schema {
	if root == nil {
		return NewSchema()
	}
	level := c.MaxLevel
	if level < 1 {
		level = 1
	}
	return c.compileFields(root.Fields, level, "")
}

func (c *SchemaCompiler) compileFields(fields []*models.FieldDefinition, level int, prefix string) *Schema {
	schema := NewSchema()
	for _, field := range fields {
		if field == nil {
			continue
		}
		name := field.EffectiveName()
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		node := c.compileField(field, level, path)
		if !field.Required {
			node = OptionalNode{Inner: node}
		}
		schema.Set(name, node, field.Description)
	}
	return schema
}

func (c *SchemaCompiler) compileField(field *models.FieldDefinition, level int, path string) Node {
	switch field.Type {
	case models.FieldTypeString, models.FieldTypeRichText:
		return StringNode{}
	case models.FieldTypeNumber:
		return NumberNode{}
	case models.FieldTypeBoolean:
		return BooleanNode{}
	case models.FieldTypeDate:
		return DateNode{}
	case models.FieldTypeEnum:
		keys := field.EnumKeys()
		if len(keys) == 0 {
			c.logger.Debugw("Enum field without values compiled as string", "path", path)
			return StringNode{}
		}
		return EnumNode{Values: keys}
	case models.FieldTypeReference:
		return StringNode{}
	case models.FieldTypeArrayReference:
		return ArrayNode{Element: StringNode{}}
	case models.FieldTypeEmbeddedDocument:
		node, _ := c.compileEmbedded(field, level, path)
		return node
	case models.FieldTypeArrayEmbeddedDocuments:
		nested, ok := c.compileEmbedded(field, level, path)
		if !ok {
			return nested
		}
		return ArrayNode{Element: nested}
	case models.FieldTypeComputation:
		return AnyNode{}
	default:
		c.logger.Debugw("Unknown field type compiled as any", "path", path, "type", field.Type)
		return AnyNode{}
	}
}

// compileEmbedded compiles the populated sub-definition of an embedded field.
// When it returns false the node is a fallback and must be used as is: array
// of any when the sub-definition is missing, any beyond the depth limit.
func (c *SchemaCompiler) compileEmbedded(field *models.FieldDefinition, level int, path string) (Node, bool) {
	sub := field.EmbeddedFields()
	if len(sub) == 0 {
		c.logger.Debugw("Embedded document without fields compiled as array of any", "path", path)
		return ArrayNode{Element: AnyNode{}}, false
	}
	if level <= 1 {
		c.logger.Debugw("Depth limit reached, embedded document compiled as any", "path", path, "maxLevel", c.MaxLevel)
		return AnyNode{}, false
	}
	return ObjectNode{Schema: c.compileFields(sub, level-1, path)}, true
}
