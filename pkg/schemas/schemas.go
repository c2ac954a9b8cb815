// Package schemas holds the JSON schema registry for the backend's wire
// payloads. Responses are validated against these schemas at the HTTP
// adapter boundary before they are unmarshalled into model structs, so a
// shape mismatch fails fast as a typed validation error instead of
// propagating zero values into the rest of the program.
package schemas

import (
	"embed"
	"fmt"
	"sync"

	"combinator-portal/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed definitions/*.json
var definitions embed.FS

// Names of the registered schemas.
const (
	Application         = "application"
	ApplicationEnvelope = "application_envelope"
	ApplicationList     = "application_list"
	LoginResponse       = "login_response"
)

var (
	once     sync.Once
	compiled map[string]*gojsonschema.Schema
	loadErr  error
)

// Schemas referenced by others must be added to the loader before the
// documents that $ref them are compiled.
var registry = []struct {
	name string
	file string
	root bool
}{
	{Application, "definitions/application.json", true},
	{ApplicationEnvelope, "definitions/application_envelope.json", true},
	{ApplicationList, "definitions/application_list.json", true},
	{LoginResponse, "definitions/login_response.json", true},
}

func load() {
	compiled = make(map[string]*gojsonschema.Schema, len(registry))

	appSchema, err := definitions.ReadFile("definitions/application.json")
	if err != nil {
		loadErr = fmt.Errorf("read application schema: %w", err)
		return
	}

	for _, entry := range registry {
		raw, err := definitions.ReadFile(entry.file)
		if err != nil {
			loadErr = fmt.Errorf("read schema %s: %w", entry.name, err)
			return
		}

		loader := gojsonschema.NewSchemaLoader()
		if entry.name != Application {
			if err := loader.AddSchemas(gojsonschema.NewBytesLoader(appSchema)); err != nil {
				loadErr = fmt.Errorf("register application schema for %s: %w", entry.name, err)
				return
			}
		}
		schema, err := loader.Compile(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			loadErr = fmt.Errorf("compile schema %s: %w", entry.name, err)
			return
		}
		compiled[entry.name] = schema
	}
}

// Validate checks a raw JSON document against the named schema. A mismatch
// returns a validation error listing every offending field.
func Validate(name string, doc []byte) error {
	once.Do(load)
	if loadErr != nil {
		return loadErr
	}

	schema, ok := compiled[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return errors.NewSchemaError(name, errors.FieldError{Field: "(document)", Message: err.Error()})
	}
	if result.Valid() {
		return nil
	}

	fields := make([]errors.FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		fields = append(fields, errors.FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return errors.NewSchemaError(name, fields...)
}
