package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userDefinition = `{
	"name": "user",
	"type": "STRING",
	"version": 1,
	"fields": [
		{"name": "name", "type": "STRING", "required": true, "description": "Full name", "version": 1, "fields": null},
		{
			"name": "status", "type": "ENUM", "version": 2, "fields": null,
			"enumValues": {"pending": {"name": "Pending"}, "active": {"name": "Active", "color": "green"}}
		},
		{
			"name": "address", "type": "EMBEDDED_DOCUMENT", "version": 1, "fields": null,
			"populateData": {
				"path": "home",
				"referencePopulated": {
					"name": "address", "type": "STRING", "version": 1,
					"fields": [{"name": "city", "type": "STRING", "version": 1, "fields": null}]
				}
			}
		}
	]
}`

func TestParseFieldDefinition(t *testing.T) {
	def, err := ParseFieldDefinition([]byte(userDefinition))
	require.NoError(t, err)

	require.Len(t, def.Fields, 3)
	assert.Equal(t, "user", def.Name)
	assert.Equal(t, 1, def.Version)

	name := def.Fields[0]
	assert.Equal(t, FieldTypeString, name.Type)
	assert.True(t, name.Required)
	assert.Equal(t, "Full name", name.Description)
	assert.Nil(t, name.Fields)

	status := def.Fields[1]
	assert.Equal(t, []string{"active", "pending"}, status.EnumKeys())
	assert.Equal(t, "green", status.EnumValues["active"].Color)

	address := def.Fields[2]
	assert.Equal(t, "home", address.EffectiveName())
	require.Len(t, address.EmbeddedFields(), 1)
	assert.Equal(t, "city", address.EmbeddedFields()[0].Name)
}

func TestParseFieldDefinition_Invalid(t *testing.T) {
	_, err := ParseFieldDefinition([]byte(`{"name":`))
	assert.Error(t, err)
}

func TestFieldDefinition_Accessors(t *testing.T) {
	plain := &FieldDefinition{Name: "plain", Type: FieldTypeNumber}
	assert.Equal(t, "plain", plain.EffectiveName())
	assert.Nil(t, plain.EmbeddedFields())
	assert.Nil(t, plain.EnumKeys())

	emptyPath := &FieldDefinition{Name: "kept", PopulateData: &PopulateData{}}
	assert.Equal(t, "kept", emptyPath.EffectiveName())
	assert.Nil(t, emptyPath.EmbeddedFields())
}

func TestFieldType_IsValid(t *testing.T) {
	for _, ft := range []FieldType{
		FieldTypeString, FieldTypeRichText, FieldTypeNumber, FieldTypeBoolean, FieldTypeDate,
		FieldTypeEnum, FieldTypeReference, FieldTypeArrayReference, FieldTypeEmbeddedDocument,
		FieldTypeArrayEmbeddedDocuments, FieldTypeComputation, FieldTypeFieldGroup,
	} {
		assert.True(t, ft.IsValid(), ft)
	}
	assert.False(t, FieldType("string").IsValid())
	assert.False(t, FieldType("").IsValid())
}
