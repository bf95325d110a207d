package matchpipe

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/analyzer_response.schema.json
var analyzerResponseSchemaJSON []byte

var (
	compileOnce      sync.Once
	compiledAnalyzer *jsonschema.Schema
	compileErr       error
)

// analyzerSchema compiles the embedded schema once per process. Compilation
// is pure and the result immutable, so sharing it across concurrent driver
// calls needs no locking beyond the one-time compile.
func analyzerSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("analyzer_response.schema.json", bytes.NewReader(analyzerResponseSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("matchpipe: add schema resource: %w", err)
			return
		}
		compiledAnalyzer, compileErr = compiler.Compile("analyzer_response.schema.json")
	})
	return compiledAnalyzer, compileErr
}

// ValidateAnalyzerResponse parses raw JSON and validates it against the
// fixed analyzer response schema. A validation failure is
// ErrSchemaValidation wrapped with the underlying jsonschema error.
func ValidateAnalyzerResponse(raw []byte) (AnalyzerResponse, error) {
	var resp AnalyzerResponse

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return resp, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}

	sch, err := analyzerSchema()
	if err != nil {
		return resp, err
	}
	if err := sch.Validate(doc); err != nil {
		return resp, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}

	if err := json.Unmarshal(raw, &resp); err != nil {
		return resp, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	return resp, nil
}
