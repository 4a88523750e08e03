// Package jsoncheck validates JSON documents against named JSON Schemas,
// compiling each schema once.
package jsoncheck

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var (
	// ErrMalformed indicates the document is not valid JSON.
	ErrMalformed = errors.New("malformed JSON")

	// ErrViolation indicates the document does not conform to its schema.
	ErrViolation = errors.New("schema violation")
)

// Checker caches compiled schemas by name.
type Checker struct {
	compiled sync.Map // map[string]*jsonschema.Schema
}

var defaultChecker = &Checker{}

// Validate checks raw against def using the package-level cache.
func Validate(name string, def map[string]any, raw []byte) error {
	return defaultChecker.Validate(name, def, raw)
}

// Validate parses raw and checks it against the schema def registered as name.
// The first definition seen for a name wins.
func (c *Checker) Validate(name string, def map[string]any, raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	schema, err := c.schema(name, def)
	if err != nil {
		return err
	}

	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrViolation, err)
	}
	return nil
}

func (c *Checker) schema(name string, def map[string]any) (*jsonschema.Schema, error) {
	if cached, ok := c.compiled.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants a decoded JSON value, so round-trip the Go map.
	defBytes, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %q: %w", name, err)
	}
	var doc any
	if err := json.Unmarshal(defBytes, &doc); err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %q: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", name, err)
	}

	actual, _ := c.compiled.LoadOrStore(name, compiled)
	return actual.(*jsonschema.Schema), nil
}
