package registry

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"mercator-hq/patientseek/pkg/providers"
)

// SchemaValidator validates documents against JSON Schemas, caching each
// compiled schema.
type SchemaValidator struct {
	cache sync.Map // map[string]*gojsonschema.Schema
}

// NewSchemaValidator creates a validator with an empty cache.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

// Validate checks doc against schema. It returns a ConfigError when the
// schema itself is unusable and a ValidationError naming the first failing
// field otherwise.
func (v *SchemaValidator) Validate(schema map[string]any, doc any) error {
	compiled, err := v.compile(schema)
	if err != nil {
		return &providers.ConfigError{
			Provider: "registry",
			Field:    "config_schema",
			Message:  err.Error(),
		}
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &providers.ValidationError{
			Field:   "config",
			Message: fmt.Sprintf("failed to validate: %v", err),
		}
	}
	if result.Valid() {
		return nil
	}

	errs := result.Errors()
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Description())
	}
	return &providers.ValidationError{
		Field:   "config." + errs[0].Field(),
		Message: strings.Join(msgs, "; "),
	}
}

func (v *SchemaValidator) compile(schema map[string]any) (*gojsonschema.Schema, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	key := string(data)

	if val, ok := v.cache.Load(key); ok {
		return val.(*gojsonschema.Schema), nil
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, err
	}
	v.cache.Store(key, compiled)
	return compiled, nil
}
