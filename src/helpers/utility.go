package helpers

import (
	"strings"

	"github.com/google/uuid"
)

// definitionNamespace scopes definition ids generated by DefinitionID.
var definitionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("fieldmapper/field-definition"))

// DefinitionID returns a stable UUID for a serialized field definition. The
// same bytes always give the same id.
func DefinitionID(definition []byte) string {
	return uuid.NewSHA1(definitionNamespace, definition).String()
}

// Helper function to properly remove quotes from strings
func StripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
