package request

import (
	"errors"
	"fmt"
)

// ErrSchemaMismatch is matched by every error reporting well-formed JSON that
// does not have the shape of a request.
var ErrSchemaMismatch = errors.New("json: command doesn't conform to schema")

// SchemaError reports the first violation found in a message.
type SchemaError struct {
	Field  string // dotted path, empty for the top level
	Detail string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: %s", e.Detail)
	}
	return fmt.Sprintf("schema: %s: %s", e.Field, e.Detail)
}

// Is makes SchemaError match ErrSchemaMismatch.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// UnknownTypeError reports a type tag with no registered variant.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown request type %q", e.Type)
}

// Is makes UnknownTypeError match ErrSchemaMismatch.
func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

func fieldError(field, format string, args ...any) *SchemaError {
	return &SchemaError{Field: field, Detail: fmt.Sprintf(format, args...)}
}
