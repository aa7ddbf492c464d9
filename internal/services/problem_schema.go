package services

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidProblem is returned for a problem file whose fields have the
// wrong JSON types.
var ErrInvalidProblem = errors.New("invalid problem file")

//go:embed generated_problem.schema.json
var generatedProblemSchema string

var problemSchemaLoader = gojsonschema.NewStringLoader(generatedProblemSchema)

// validateProblemJSON checks data against the generated problem schema.
// Absent fields are allowed; ConvertProblem fills their defaults.
func validateProblemJSON(data []byte) error {
	result, err := gojsonschema.Validate(problemSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to parse problem json: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidProblem, strings.Join(msgs, "; "))
}
