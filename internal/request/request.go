// Package request turns newline-delimited JSON messages into typed requests.
//
// Every message is an envelope of exactly two keys:
//
//	{"type": "command", "data": {...}}
//
// The type tag selects a registered variant, whose schema and builder turn
// data into a Request. Validation is strict: unknown keys, missing keys and
// wrong types all fail, and the first violation aborts the build. A builder
// either returns a complete request or nothing.
package request

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// Request is a decoded request. Each variant reports the type tag it was
// built from.
type Request interface {
	Type() string
}

// BuildFunc converts the data member of a validated envelope into a request.
// It must return a nil Request whenever it returns an error.
type BuildFunc func(data Value) (Request, error)

// Variant describes one request type.
type Variant struct {
	// Schema validates data before Build runs. Optional.
	Schema *gojsonschema.Schema
	Build  BuildFunc
}

// Registry maps type tags to variants.
type Registry struct {
	envelope *gojsonschema.Schema
	variants map[string]Variant
}

// NewRegistry returns a registry holding the built-in variants.
func NewRegistry() *Registry {
	r := &Registry{
		envelope: builtinSchema("envelope.json"),
		variants: make(map[string]Variant),
	}
	r.variants[TypeCommand] = Variant{
		Schema: builtinSchema("command.json"),
		Build: func(data Value) (Request, error) {
			cmd, err := buildCommand(data)
			if err != nil {
				return nil, err
			}
			return cmd, nil
		},
	}
	return r
}

// Register adds a variant under tag.
func (r *Registry) Register(tag string, v Variant) error {
	if tag == "" {
		return fmt.Errorf("register request type: empty tag")
	}
	if v.Build == nil {
		return fmt.Errorf("register request type %q: nil builder", tag)
	}
	if _, ok := r.variants[tag]; ok {
		return fmt.Errorf("register request type %q: already registered", tag)
	}
	r.variants[tag] = v
	return nil
}

// Types returns the registered type tags, sorted.
func (r *Registry) Types() []string {
	tags := make([]string, 0, len(r.variants))
	for tag := range r.variants {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Build validates a parsed message and constructs the request it describes.
// Every failure matches ErrSchemaMismatch.
func (r *Registry) Build(v Value) (Request, error) {
	if v == nil {
		return nil, fieldError("", "empty message")
	}
	if err := validate(r.envelope, v, ""); err != nil {
		return nil, err
	}

	obj, ok := v.(*Object)
	if !ok {
		return nil, fieldError("", "expected object, got %s", kindOf(v))
	}
	tag, err := stringField(obj, "type", "type")
	if err != nil {
		return nil, err
	}
	data, ok := obj.Get("data")
	if !ok {
		return nil, fieldError("", "data is required")
	}

	variant, ok := r.variants[tag]
	if !ok {
		return nil, &UnknownTypeError{Type: tag}
	}
	if variant.Schema != nil {
		if err := validate(variant.Schema, data, "data"); err != nil {
			return nil, err
		}
	}

	req, err := variant.Build(data)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// stringField returns obj[key], which must be a string.
func stringField(obj *Object, key, field string) (string, error) {
	v, ok := obj.Get(key)
	if !ok {
		return "", fieldError(field, "is required")
	}
	s, ok := v.(String)
	if !ok {
		return "", fieldError(field, "expected string, got %s", v.Kind())
	}
	return string(s), nil
}
