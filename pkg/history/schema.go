package history

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

var (
	schemaOnce sync.Once
	schemaInst *gojsonschema.Schema
	schemaErr  error
)

// backingSchema describes the persisted form: a JSON array of flat objects,
// each with an integer id and a string timestamp. Other properties are the
// caller's and are not constrained.
func backingSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaMap := map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []string{"id", "timestamp"},
				"properties": map[string]interface{}{
					"id":        map[string]interface{}{"type": "integer"},
					"timestamp": map[string]interface{}{"type": "string"},
				},
			},
		}
		schemaInst, schemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	})
	return schemaInst, schemaErr
}

// validateBacking checks raw backing data against backingSchema.
func validateBacking(raw string) error {
	schema, err := backingSchema()
	if err != nil {
		return fmt.Errorf("failed to build history schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return err
	}

	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fmt.Errorf("validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
