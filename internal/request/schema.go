package request

import (
	"embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// LoadSchema compiles a JSON Schema (draft-07) document.
func LoadSchema(doc []byte) (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// builtinSchema compiles one of the embedded schemas. The embedded documents
// are fixed at build time, so a failure here is a programming error.
func builtinSchema(name string) *gojsonschema.Schema {
	doc, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("request: missing schema %s: %v", name, err))
	}
	schema, err := LoadSchema(doc)
	if err != nil {
		panic(fmt.Sprintf("request: schema %s: %v", name, err))
	}
	return schema
}

// validate checks v against schema and returns the first violation.
func validate(schema *gojsonschema.Schema, v Value, field string) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(v.Interface()))
	if err != nil {
		return &SchemaError{Field: field, Detail: err.Error()}
	}
	if result.Valid() {
		return nil
	}

	first := result.Errors()[0]
	return &SchemaError{
		Field:  joinField(field, first.Field()),
		Detail: first.Description(),
	}
}

// rootField is the field gojsonschema reports for the validated document itself.
const rootField = "(root)"

// joinField prefixes a gojsonschema field path with the location of the
// validated value.
func joinField(prefix, field string) string {
	if field == "" || field == rootField {
		return prefix
	}
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}
