package engine

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fieldmapper/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"
)

func leaf(name string, fieldType models.FieldType, required bool) *models.FieldDefinition {
	return &models.FieldDefinition{Name: name, Type: fieldType, Required: required, Version: 1}
}

func embedded(name string, fieldType models.FieldType, required bool, children ...*models.FieldDefinition) *models.FieldDefinition {
	return &models.FieldDefinition{
		Name:     name,
		Type:     fieldType,
		Required: required,
		Version:  1,
		PopulateData: &models.PopulateData{
			Path: name,
			ReferencePopulated: &models.FieldDefinition{
				Name:    name,
				Type:    models.FieldTypeString,
				Version: 1,
				Fields:  children,
			},
		},
	}
}

func root(children ...*models.FieldDefinition) *models.FieldDefinition {
	return &models.FieldDefinition{Name: "root", Type: models.FieldTypeString, Version: 1, Fields: children}
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestCompileSchema_LeafTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fieldType models.FieldType
		want      Node
	}{
		{models.FieldTypeString, StringNode{}},
		{models.FieldTypeRichText, StringNode{}},
		{models.FieldTypeNumber, NumberNode{}},
		{models.FieldTypeBoolean, BooleanNode{}},
		{models.FieldTypeDate, DateNode{}},
		{models.FieldTypeReference, StringNode{}},
		{models.FieldTypeArrayReference, ArrayNode{Element: StringNode{}}},
		{models.FieldTypeComputation, AnyNode{}},
		{models.FieldTypeFieldGroup, AnyNode{}},
		{models.FieldType("SOMETHING_NEW"), AnyNode{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.fieldType), func(t *testing.T) {
			t.Parallel()
			schema := CompileSchema(root(leaf("value", tt.fieldType, true)), DefaultMaxLevel)
			node, ok := schema.Field("value")
			require.True(t, ok)
			assert.Equal(t, tt.want, node)
		})
	}
}

func TestCompileSchema_EmptyFields(t *testing.T) {
	t.Parallel()

	for name, definition := range map[string]string{
		"empty":   `{"name":"root","type":"STRING","version":1,"fields":[]}`,
		"null":    `{"name":"root","type":"STRING","version":1,"fields":null}`,
		"missing": `{"name":"root","type":"STRING","version":1}`,
	} {
		definition := definition
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			schema, err := CompileSchemaFromString(definition, DefaultMaxLevel)
			require.NoError(t, err)
			assert.Equal(t, 0, schema.Len())
			assert.Empty(t, DeriveQueryAbilities(schema, Unbounded))
		})
	}

	assert.Equal(t, 0, CompileSchema(nil, DefaultMaxLevel).Len())
}

func TestCompileSchemaFromString_ParseError(t *testing.T) {
	t.Parallel()

	_, err := CompileSchemaFromString("invalid json", DefaultMaxLevel)
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
}

func TestCompileSchema_RequiredAndOptional(t *testing.T) {
	t.Parallel()

	for _, fieldType := range []models.FieldType{
		models.FieldTypeString, models.FieldTypeNumber, models.FieldTypeBoolean, models.FieldTypeDate,
	} {
		fieldType := fieldType
		t.Run(string(fieldType), func(t *testing.T) {
			t.Parallel()

			required := CompileSchema(root(leaf("value", fieldType, true)), DefaultMaxLevel)
			err := required.Validate(map[string]interface{}{})
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, "value", ve.Path)
			assert.Equal(t, "required", ve.Reason)

			optional := CompileSchema(root(leaf("value", fieldType, false)), DefaultMaxLevel)
			assert.NoError(t, optional.Validate(map[string]interface{}{}))
			node, _ := optional.Field("value")
			assert.IsType(t, OptionalNode{}, node)
		})
	}
}

func TestCompileSchema_ValidatesValues(t *testing.T) {
	t.Parallel()

	schema := CompileSchema(root(
		leaf("name", models.FieldTypeString, true),
		leaf("age", models.FieldTypeNumber, true),
		leaf("isActive", models.FieldTypeBoolean, false),
		leaf("createdAt", models.FieldTypeDate, true),
	), DefaultMaxLevel)

	assert.Equal(t, []string{"name", "age", "isActive", "createdAt"}, schema.Fields())

	valid := []map[string]interface{}{
		{"name": "John", "age": 25, "isActive": true, "createdAt": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"name": "John", "age": 25.5, "createdAt": "2024-01-01"},
		{"name": "John", "age": int64(25), "createdAt": "2024-01-01T10:00:00Z", "isActive": nil},
		{"name": "John", "age": 1, "createdAt": float64(1704067200000)},
		{"name": "John", "age": 1, "createdAt": primitive.NewDateTimeFromTime(time.Now())},
	}
	for _, doc := range valid {
		assert.NoError(t, schema.Validate(doc), "%v", doc)
	}

	err := schema.Validate(map[string]interface{}{
		"name":      123,
		"age":       "25",
		"isActive":  "yes",
		"createdAt": "not a date",
	})
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 4)

	paths := make([]string, 0, len(errs))
	for _, e := range errs {
		var ve *ValidationError
		require.True(t, errors.As(e, &ve))
		paths = append(paths, ve.Path)
	}
	assert.Equal(t, []string{"name", "age", "isActive", "createdAt"}, paths)
}

func TestCompileSchema_RejectsNonDocuments(t *testing.T) {
	t.Parallel()

	schema := CompileSchema(root(leaf("name", models.FieldTypeString, true)), DefaultMaxLevel)
	err := schema.Validate("not a document")
	assert.ErrorIs(t, err, ErrNotAnObject)
}

func TestCompileSchema_AcceptsBSONDocuments(t *testing.T) {
	t.Parallel()

	schema := CompileSchema(root(
		leaf("name", models.FieldTypeString, true),
		embedded("address", models.FieldTypeEmbeddedDocument, true,
			leaf("city", models.FieldTypeString, true),
		),
		leaf("tags", models.FieldTypeArrayReference, true),
	), DefaultMaxLevel)

	assert.NoError(t, schema.Validate(bson.M{
		"name":    "John",
		"address": bson.D{{Key: "city", Value: "Berlin"}},
		"tags":    bson.A{"a", "b"},
	}))
	assert.NoError(t, schema.Validate(bson.D{
		{Key: "name", Value: "John"},
		{Key: "address", Value: bson.M{"city": "Berlin"}},
		{Key: "tags", Value: []string{"a"}},
	}))
}

func TestCompileSchema_Enum(t *testing.T) {
	t.Parallel()

	status := leaf("status", models.FieldTypeEnum, true)
	status.EnumValues = map[string]models.EnumValue{
		"active":   {Name: "Active"},
		"pending":  {Name: "Pending"},
		"inactive": {Name: "Inactive"},
	}
	schema := CompileSchema(root(status), DefaultMaxLevel)

	node, _ := schema.Field("status")
	assert.Equal(t, EnumNode{Values: []string{"active", "inactive", "pending"}}, node)
	assert.NoError(t, schema.Validate(map[string]interface{}{"status": "active"}))
	assert.NoError(t, schema.Validate(map[string]interface{}{"status": "pending"}))
	assert.Error(t, schema.Validate(map[string]interface{}{"status": "invalid"}))

	t.Run("without values is a string", func(t *testing.T) {
		schema := CompileSchema(root(leaf("status", models.FieldTypeEnum, true)), DefaultMaxLevel)
		node, _ := schema.Field("status")
		assert.Equal(t, StringNode{}, node)
		assert.NoError(t, schema.Validate(map[string]interface{}{"status": "any-value"}))
	})
}

func TestCompileSchema_EmbeddedDocuments(t *testing.T) {
	t.Parallel()

	schema := CompileSchema(root(
		embedded("address", models.FieldTypeEmbeddedDocument, true,
			leaf("street", models.FieldTypeString, true),
			leaf("city", models.FieldTypeString, true),
		),
		embedded("tags", models.FieldTypeArrayEmbeddedDocuments, true,
			leaf("name", models.FieldTypeString, true),
			leaf("color", models.FieldTypeString, false),
		),
	), DefaultMaxLevel)

	address, _ := schema.Field("address")
	require.IsType(t, ObjectNode{}, address)
	assert.Equal(t, []string{"street", "city"}, address.(ObjectNode).Schema.Fields())

	tags, _ := schema.Field("tags")
	require.IsType(t, ArrayNode{}, tags)
	assert.Equal(t, TypeObjectArray, tags.Describe())

	assert.NoError(t, schema.Validate(map[string]interface{}{
		"address": map[string]interface{}{"street": "123 Main St", "city": "New York"},
		"tags": []interface{}{
			map[string]interface{}{"name": "javascript", "color": "yellow"},
			map[string]interface{}{"name": "typescript"},
		},
	}))

	err := schema.Validate(map[string]interface{}{
		"address": map[string]interface{}{"street": "123 Main St"},
		"tags": []interface{}{
			map[string]interface{}{"name": "javascript"},
			map[string]interface{}{"color": "blue"},
		},
	})
	require.Error(t, err)
	var got []string
	for _, e := range multierr.Errors(err) {
		got = append(got, e.Error())
	}
	assert.Equal(t, []string{"address.city: required", "tags.1.name: required"}, got)
}

// An embedded document without populated fields compiles to an array of
// anything instead of an empty object. This is a known quirk kept for
// compatibility, not a guarantee.
func TestCompileSchema_EmbeddedDocumentQuirk(t *testing.T) {
	t.Parallel()

	single := leaf("meta", models.FieldTypeEmbeddedDocument, true)
	many := leaf("items", models.FieldTypeArrayEmbeddedDocuments, true)
	empty := embedded("extra", models.FieldTypeEmbeddedDocument, true)

	schema := CompileSchema(root(single, many, empty), DefaultMaxLevel)

	for _, name := range []string{"meta", "items", "extra"} {
		node, ok := schema.Field(name)
		require.True(t, ok)
		assert.Equal(t, ArrayNode{Element: AnyNode{}}, node, name)
		assert.Equal(t, TypeArray, node.Describe(), name)
	}

	assert.NoError(t, schema.Validate(map[string]interface{}{
		"meta": []interface{}{1, "two"}, "items": []interface{}{}, "extra": []interface{}{nil},
	}))
	assert.Error(t, schema.Validate(map[string]interface{}{
		"meta": map[string]interface{}{}, "items": []interface{}{}, "extra": []interface{}{},
	}))
}

func TestCompileSchema_MaxLevel(t *testing.T) {
	t.Parallel()

	definition := root(
		embedded("level1", models.FieldTypeEmbeddedDocument, true,
			embedded("level2", models.FieldTypeEmbeddedDocument, true,
				embedded("level3", models.FieldTypeEmbeddedDocument, true,
					leaf("field", models.FieldTypeString, true),
				),
			),
		),
	)

	schema := CompileSchema(definition, DefaultMaxLevel)
	level1, _ := schema.Field("level1")
	require.IsType(t, ObjectNode{}, level1)
	level2, _ := level1.(ObjectNode).Schema.Field("level2")
	require.IsType(t, ObjectNode{}, level2)
	level3, _ := level2.(ObjectNode).Schema.Field("level3")
	assert.Equal(t, AnyNode{}, level3)

	shallow := CompileSchema(definition, 1)
	level1, _ = shallow.Field("level1")
	assert.Equal(t, AnyNode{}, level1)

	assert.Equal(t, shallow, CompileSchema(definition, 0))

	deep := CompileSchema(definition, 4)
	level1, _ = deep.Field("level1")
	level2, _ = level1.(ObjectNode).Schema.Field("level2")
	level3, _ = level2.(ObjectNode).Schema.Field("level3")
	require.IsType(t, ObjectNode{}, level3)
	assert.Equal(t, []string{"field"}, level3.(ObjectNode).Schema.Fields())
}

func TestCompileSchema_PopulatePathRenamesField(t *testing.T) {
	t.Parallel()

	field := leaf("fieldName", models.FieldTypeString, true)
	field.PopulateData = &models.PopulateData{Path: "customPath"}

	schema := CompileSchema(root(field), DefaultMaxLevel)
	_, hasCustom := schema.Field("customPath")
	_, hasName := schema.Field("fieldName")
	assert.True(t, hasCustom)
	assert.False(t, hasName)
}

func TestCompileSchema_DuplicateNamesKeepFirstPosition(t *testing.T) {
	t.Parallel()

	schema := CompileSchema(root(
		leaf("a", models.FieldTypeString, true),
		leaf("b", models.FieldTypeString, true),
		leaf("a", models.FieldTypeNumber, true),
	), DefaultMaxLevel)

	assert.Equal(t, []string{"a", "b"}, schema.Fields())
	node, _ := schema.Field("a")
	assert.Equal(t, NumberNode{}, node)
}

func TestCompileSchema_Descriptions(t *testing.T) {
	t.Parallel()

	name := leaf("name", models.FieldTypeString, true)
	name.Description = "User's full name"

	schema := CompileSchema(root(name, leaf("age", models.FieldTypeNumber, true)), DefaultMaxLevel)
	assert.Equal(t, "User's full name", schema.Description("name"))
	assert.Empty(t, schema.Description("age"))
}

func TestCompileSchema_ComputationAcceptsAnything(t *testing.T) {
	t.Parallel()

	schema := CompileSchema(root(leaf("computedValue", models.FieldTypeComputation, true)), DefaultMaxLevel)
	for _, v := range []interface{}{"any", 123, nil, []interface{}{1}} {
		assert.NoError(t, schema.Validate(map[string]interface{}{"computedValue": v}))
	}
	assert.NoError(t, schema.Validate(map[string]interface{}{}))
}

func TestCompileSchema_IsDeterministic(t *testing.T) {
	t.Parallel()

	status := leaf("status", models.FieldTypeEnum, false)
	status.EnumValues = map[string]models.EnumValue{"b": {}, "a": {}, "c": {}}
	definition := mustJSON(t, root(
		status,
		embedded("user", models.FieldTypeEmbeddedDocument, true,
			leaf("bio", models.FieldTypeRichText, false),
		),
	))

	first, err := CompileSchemaFromString(definition, DefaultMaxLevel)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := CompileSchemaFromString(definition, DefaultMaxLevel)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSchemaCompiler_LogsDegradations(t *testing.T) {
	t.Parallel()

	compiler := NewSchemaCompiler(DefaultMaxLevel, zaptest.NewLogger(t).Sugar())
	schema := compiler.Compile(root(
		leaf("weird", models.FieldType("NOPE"), true),
		leaf("meta", models.FieldTypeEmbeddedDocument, true),
	))
	assert.Equal(t, 2, schema.Len())
}
