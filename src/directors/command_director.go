package directors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fieldmapper/src/engine"
	"fieldmapper/src/helpers"

	"go.uber.org/zap"
)

// ErrUnknownCommand is returned for commands the director does not know.
var ErrUnknownCommand = errors.New("unknown command")

// CommandResponse is the result of one director command.
type CommandResponse struct {
	DefinitionID string      `json:"definitionId,omitempty"`
	ResultCount  int         `json:"resultCount"`
	Result       interface{} `json:"result"`
}

// QueryRequest is one condition to compile. Definition is optional; when set
// the element type comes from the definition's query abilities.
type QueryRequest struct {
	Definition  string
	Path        string
	Operator    string
	Value       string
	ElementType engine.ElementType
}

// CommandDirector runs one command against the mapper service:
//
//	abilities <definition>
//	jsonschema <definition>
//	validate <definition> <document>
//
// Queries take structured input, see QueryDirector.
func CommandDirector(serviceManager *ServiceManager, command string, args []string, logger *zap.SugaredLogger) (*CommandResponse, error) {
	service := serviceManager.MapperService
	if service == nil {
		return nil, fmt.Errorf("mapper service is not initialized")
	}

	command = strings.ToLower(strings.TrimSpace(command))
	logger.Debugw("Running command", "command", command, "args", args)

	switch command {
	case "abilities":
		if len(args) < 1 {
			return nil, fmt.Errorf("ABILITIES requires a definition file")
		}
		compiled, err := service.CompileDefinitionFile(args[0])
		if err != nil {
			return nil, err
		}
		abilities := service.Abilities(compiled)
		return &CommandResponse{
			DefinitionID: compiled.ID,
			ResultCount:  len(abilities),
			Result:       abilities,
		}, nil

	case "jsonschema":
		if len(args) < 1 {
			return nil, fmt.Errorf("JSONSCHEMA requires a definition file")
		}
		compiled, err := service.CompileDefinitionFile(args[0])
		if err != nil {
			return nil, err
		}
		return &CommandResponse{
			DefinitionID: compiled.ID,
			ResultCount:  compiled.Schema.Len(),
			Result:       compiled.Schema.JSONSchema(),
		}, nil

	case "validate":
		if len(args) < 2 {
			return nil, fmt.Errorf("VALIDATE requires a definition file and a document file")
		}
		compiled, err := service.CompileDefinitionFile(args[0])
		if err != nil {
			return nil, err
		}
		raw, err := helpers.ReadDataFile(args[1])
		if err != nil {
			return nil, err
		}
		if err := service.ValidateDocument(compiled, args[1], raw); err != nil {
			return &CommandResponse{DefinitionID: compiled.ID}, err
		}
		return &CommandResponse{
			DefinitionID: compiled.ID,
			ResultCount:  1,
			Result:       "valid",
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
}

// QueryDirector compiles one query condition.
func QueryDirector(serviceManager *ServiceManager, req QueryRequest) (*CommandResponse, error) {
	service := serviceManager.MapperService
	if service == nil {
		return nil, fmt.Errorf("mapper service is not initialized")
	}

	var (
		abilities engine.QueryAbilities
		id        string
	)
	if req.Definition != "" {
		compiled, err := service.CompileDefinitionFile(req.Definition)
		if err != nil {
			return nil, err
		}
		abilities = service.Abilities(compiled)
		id = compiled.ID
	}

	fragment, err := service.QueryFragment(abilities, req.Path, req.Operator, ParseQueryValue(req.Value), req.ElementType)
	if err != nil {
		return nil, err
	}
	return &CommandResponse{DefinitionID: id, ResultCount: 1, Result: fragment}, nil
}

// ParseQueryValue turns a command line value into a query value. A JSON
// array literal becomes a list, anything else stays a string with
// surrounding quotes removed.
func ParseQueryValue(value string) interface{} {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		var list []interface{}
		if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
			return list
		}
	}
	return helpers.StripQuotes(trimmed)
}
