package directors

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"fieldmapper/src/engine"
	"fieldmapper/src/helpers"
	"fieldmapper/src/settings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// CompiledDefinition is a compiled field definition together with the id of
// its serialized form.
type CompiledDefinition struct {
	ID     string
	Schema *engine.Schema
}

// MapperService runs the mapping pipeline on definitions and documents read
// from disk.
type MapperService struct {
	compiler *engine.SchemaCompiler
	settings *settings.Arguments
	logger   *zap.SugaredLogger
}

func NewMapperService(settings *settings.Arguments, logger *zap.SugaredLogger) *MapperService {
	return &MapperService{
		compiler: engine.NewSchemaCompiler(settings.MaxLevel, logger.Named("compiler")),
		settings: settings,
		logger:   logger,
	}
}

// CompileDefinition compiles a JSON encoded field definition tree.
func (s *MapperService) CompileDefinition(definition []byte) (*CompiledDefinition, error) {
	id := helpers.DefinitionID(definition)

	schema, err := s.compiler.CompileString(string(definition))
	if err != nil {
		s.logger.Errorw("Failed to compile field definition", "definitionId", id, "error", err)
		return nil, err
	}

	if s.settings.Debug {
		s.logger.Debugf("Compiled definition %s with %d top-level fields", id, schema.Len())
	}
	return &CompiledDefinition{ID: id, Schema: schema}, nil
}

// CompileDefinitionFile reads and compiles a definition file.
func (s *MapperService) CompileDefinitionFile(path string) (*CompiledDefinition, error) {
	if !helpers.FileExists(path, s.logger) {
		return nil, fmt.Errorf("definition file %s not found", path)
	}
	data, err := helpers.ReadDataFile(path)
	if err != nil {
		return nil, err
	}
	compiled, err := s.CompileDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("error compiling %s: %w", path, err)
	}
	return compiled, nil
}

// Abilities derives the query abilities of a compiled definition, honouring
// the configured max depth.
func (s *MapperService) Abilities(compiled *CompiledDefinition) engine.QueryAbilities {
	maxDepth := s.settings.MaxDepth
	if maxDepth <= 0 {
		maxDepth = engine.Unbounded
	}
	abilities := engine.DeriveQueryAbilities(compiled.Schema, maxDepth)
	s.logger.Debugw("Derived query abilities", "definitionId", compiled.ID, "paths", len(abilities))
	return abilities
}

// QueryFragment compiles one condition. When abilities are given, the path
// must be listed there; its type is used and the operator must be supported.
func (s *MapperService) QueryFragment(abilities engine.QueryAbilities, path, operator string, value interface{}, elementType engine.ElementType) (engine.QueryFragment, error) {
	if abilities != nil {
		ability, err := abilities.Check(path, engine.Operator(operator))
		if err != nil {
			return nil, err
		}
		elementType = ability.Type
	}

	fragment, err := engine.CompileQueryFragment(path, operator, value, elementType)
	if err != nil {
		s.logger.Warnw("Rejected query condition", "path", path, "operator", operator, "error", err)
		return nil, err
	}
	return fragment, nil
}

// ValidateDocument validates a JSON or, for .bson files, BSON document.
// With JSON Schema validation enabled, JSON documents are also checked
// against the exported JSON Schema and all failures are combined.
func (s *MapperService) ValidateDocument(compiled *CompiledDefinition, name string, raw []byte) error {
	var doc map[string]interface{}
	isBSON := strings.EqualFold(filepath.Ext(name), ".bson")
	if isBSON {
		decoded, err := helpers.DecodeBSON(raw)
		if err != nil {
			return err
		}
		doc = decoded
	} else if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("error decoding document %s: %w", name, err)
	}

	errs := compiled.Schema.Validate(doc)
	if s.settings.JSONSchema && !isBSON {
		errs = multierr.Append(errs, engine.ValidateJSONDocument(compiled.Schema, raw))
	}

	if errs != nil {
		s.logger.Infow("Document failed validation", "definitionId", compiled.ID, "document", name,
			"failures", len(multierr.Errors(errs)))
	}
	return errs
}
