package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/urmzd/droidhub/pkg/device"
)

// Validator checks state payloads against a device's StateSchema.
// Compiled schemas are cached keyed by the schema text.
type Validator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewValidator creates a Validator with an empty cache.
func NewValidator() *Validator {
	return &Validator{compiled: make(map[string]*jsonschema.Schema)}
}

// Validate returns nil when payload satisfies schemaDoc. Validation failures
// wrap device.ErrValidation; a schema that does not compile is reported as is.
func (v *Validator) Validate(schemaDoc json.RawMessage, payload map[string]any) error {
	if skip(schemaDoc) {
		return nil
	}

	sch, err := v.schemaFor(schemaDoc)
	if err != nil {
		return fmt.Errorf("compile state schema: %w", err)
	}

	if err := sch.Validate(toJSONValue(payload)); err != nil {
		return fmt.Errorf("%w: %v", device.ErrValidation, err)
	}
	return nil
}

func skip(doc json.RawMessage) bool {
	s := string(bytes.TrimSpace(doc))
	return s == "" || s == "{}" || s == "null"
}

func (v *Validator) schemaFor(doc json.RawMessage) (*jsonschema.Schema, error) {
	key := string(doc)

	v.mu.RLock()
	sch, ok := v.compiled[key]
	v.mu.RUnlock()
	if ok {
		return sch, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if sch, ok := v.compiled[key]; ok {
		return sch, nil
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("state.json", parsed); err != nil {
		return nil, err
	}
	sch, err = c.Compile("state.json")
	if err != nil {
		return nil, err
	}

	v.compiled[key] = sch
	return sch, nil
}

// toJSONValue converts Go ints to float64 so payloads built in code validate
// the same way as payloads decoded from JSON.
func toJSONValue(payload map[string]any) any {
	out := make(map[string]any, len(payload))
	for k, val := range payload {
		switch n := val.(type) {
		case int:
			out[k] = float64(n)
		case int64:
			out[k] = float64(n)
		default:
			out[k] = val
		}
	}
	return out
}
