package models

import (
	"encoding/json"
	"sort"
)

// FieldType is the type tag of a field definition.
type FieldType string

const (
	FieldTypeString                 FieldType = "STRING"
	FieldTypeRichText               FieldType = "RICH_TEXT"
	FieldTypeNumber                 FieldType = "NUMBER"
	FieldTypeBoolean                FieldType = "BOOLEAN"
	FieldTypeDate                   FieldType = "DATE"
	FieldTypeEnum                   FieldType = "ENUM"
	FieldTypeReference              FieldType = "REFERENCE"
	FieldTypeArrayReference         FieldType = "ARRAY_REFERENCE"
	FieldTypeEmbeddedDocument       FieldType = "EMBEDDED_DOCUMENT"
	FieldTypeArrayEmbeddedDocuments FieldType = "ARRAY_EMBEDDED_DOCUMENTS"
	FieldTypeComputation            FieldType = "COMPUTATION"
	FieldTypeFieldGroup             FieldType = "FIELD_GROUP"
)

// IsValid reports whether t is one of the known field types.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeString, FieldTypeRichText, FieldTypeNumber, FieldTypeBoolean,
		FieldTypeDate, FieldTypeEnum, FieldTypeReference, FieldTypeArrayReference,
		FieldTypeEmbeddedDocument, FieldTypeArrayEmbeddedDocuments,
		FieldTypeComputation, FieldTypeFieldGroup:
		return true
	}
	return false
}

// FieldDefinition describes one node of a document shape. The root node of a
// tree describes the document itself; its Fields are the top-level fields.
type FieldDefinition struct {
	// Name is the field name, unique among siblings.
	Name string `json:"name"`

	Type FieldType `json:"type"`

	// Required fields must be present in a valid document.
	Required bool `json:"required,omitempty"`

	Description string `json:"description,omitempty"`

	Version int `json:"version"`

	// EnumValues maps enum keys to display metadata. Only set for ENUM fields.
	EnumValues map[string]EnumValue `json:"enumValues,omitempty"`

	PopulateData *PopulateData `json:"populateData,omitempty"`

	// Fields holds the children in declaration order, nil for leaves.
	Fields []*FieldDefinition `json:"fields"`
}

// PopulateData carries the name override and, for embedded documents, the
// populated sub-definition.
type PopulateData struct {
	Path               string           `json:"path,omitempty"`
	ReferencePopulated *FieldDefinition `json:"referencePopulated,omitempty"`
}

// EnumValue is the display metadata of one enum key.
type EnumValue struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// EffectiveName returns the name the field is known by in a compiled schema.
func (f *FieldDefinition) EffectiveName() string {
	if f.PopulateData != nil && f.PopulateData.Path != "" {
		return f.PopulateData.Path
	}
	return f.Name
}

// EmbeddedFields returns the fields of the populated sub-definition, or nil.
func (f *FieldDefinition) EmbeddedFields() []*FieldDefinition {
	if f.PopulateData == nil || f.PopulateData.ReferencePopulated == nil {
		return nil
	}
	return f.PopulateData.ReferencePopulated.Fields
}

// EnumKeys returns the enum keys in lexical order.
func (f *FieldDefinition) EnumKeys() []string {
	if len(f.EnumValues) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f.EnumValues))
	for k := range f.EnumValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseFieldDefinition decodes a JSON encoded definition tree.
func ParseFieldDefinition(data []byte) (*FieldDefinition, error) {
	var def FieldDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	return &def, nil
}
