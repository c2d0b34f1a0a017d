package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// predictionInputSchema constrains the body of /predict and /estimate.
const predictionInputSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["age", "education", "occupation", "hoursPerWeek", "region"],
  "properties": {
    "age": {"type": "integer", "minimum": 16, "maximum": 90},
    "education": {"type": "string", "minLength": 1},
    "occupation": {"type": "string", "minLength": 1},
    "hoursPerWeek": {"type": "integer", "minimum": 1, "maximum": 99},
    "region": {"type": "string"},
    "expectedMinSalary": {"type": ["number", "null"], "minimum": 0},
    "expectedMaxSalary": {"type": ["number", "null"], "minimum": 0}
  }
}`

// batchRequestSchema constrains the body of /predict/batch.
const batchRequestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["inputs"],
  "properties": {
    "inputs": {
      "type": "array",
      "minItems": 1,
      "items": {"$ref": "prediction-input.json"}
    }
  }
}`

var (
	compiledSchemas = mustCompileSchemas()
	inputSchema     = compiledSchemas["prediction-input.json"]
	batchSchema     = compiledSchemas["batch-request.json"]
)

func mustCompileSchemas() map[string]*jsonschema.Schema {
	resources := map[string]string{
		"prediction-input.json": predictionInputSchema,
		"batch-request.json":    batchRequestSchema,
	}

	compiler := jsonschema.NewCompiler()
	for name, raw := range resources {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(raw)))
		if err != nil {
			panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
		}
		if err := compiler.AddResource(name, doc); err != nil {
			panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
		}
	}

	compiled := make(map[string]*jsonschema.Schema, len(resources))
	for name := range resources {
		sch, err := compiler.Compile(name)
		if err != nil {
			panic(fmt.Sprintf("failed to compile %s: %v", name, err))
		}
		compiled[name] = sch
	}
	return compiled
}

// decodeValid validates body against sch and then decodes it into v.
func decodeValid(sch *jsonschema.Schema, body []byte, v any) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}
