package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/droidhub/pkg/device"
)

func rebootSchema() json.RawMessage {
	return json.RawMessage(`{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"properties": {
			"mode": {"type": "string", "enum": ["", "bootloader", "recovery"]},
			"delay": {"type": "number", "minimum": 0, "maximum": 60}
		},
		"additionalProperties": false
	}`)
}

func TestValidate_PropertySchema(t *testing.T) {
	v := NewValidator()

	err := v.Validate(device.PropertySchema, map[string]any{
		"persist.sys.locale": "en-US",
		"debug.hwui.profile": "true",
	})
	assert.NoError(t, err)
}

func TestValidate_PropertySchemaRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"read-only property", map[string]any{"ro.build.type": "user"}},
		{"non-string value", map[string]any{"persist.sys.locale": float64(1)}},
		{"bad key characters", map[string]any{"persist sys": "x"}},
		{"empty payload", map[string]any{}},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(device.PropertySchema, tt.payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, device.ErrValidation)
		})
	}
}

func TestValidate_InvalidEnum(t *testing.T) {
	v := NewValidator()
	err := v.Validate(rebootSchema(), map[string]any{"mode": "fastbootd"})
	assert.ErrorIs(t, err, device.ErrValidation)
}

func TestValidate_IntegersFromCode(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Validate(rebootSchema(), map[string]any{"delay": 5}))
	assert.Error(t, v.Validate(rebootSchema(), map[string]any{"delay": 120}))
}

func TestValidate_UnknownProperty(t *testing.T) {
	v := NewValidator()
	err := v.Validate(rebootSchema(), map[string]any{"mode": "", "wipe": true})
	assert.ErrorIs(t, err, device.ErrValidation)
}

func TestValidate_SkipsEmptySchemas(t *testing.T) {
	v := NewValidator()
	for _, doc := range []json.RawMessage{nil, json.RawMessage(`{}`), json.RawMessage(` null `)} {
		assert.NoError(t, v.Validate(doc, map[string]any{"anything": "goes"}))
	}
	assert.Empty(t, v.compiled)
}

func TestValidate_BrokenSchema(t *testing.T) {
	v := NewValidator()
	err := v.Validate(json.RawMessage(`{"type": 12}`), map[string]any{"a": "b"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, device.ErrValidation)
}

func TestValidate_CachesSchema(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.Validate(rebootSchema(), map[string]any{"mode": ""}))
	require.NoError(t, v.Validate(rebootSchema(), map[string]any{"mode": "recovery"}))

	v.mu.RLock()
	defer v.mu.RUnlock()
	assert.Len(t, v.compiled, 1)
}
