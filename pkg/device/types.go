package device

import (
	"context"
	"encoding/json"
	"time"
)

// Device represents an Android device reachable through a transport
type Device struct {
	ID          string          `json:"id"`                     // adb serial, or console port path
	Name        string          `json:"name"`                   // User-friendly name (model when known)
	State       string          `json:"state"`                  // Connection state reported by the transport
	Product     string          `json:"product,omitempty"`      // ro.product.name
	Model       string          `json:"model,omitempty"`        // ro.product.model
	DeviceName  string          `json:"device_name,omitempty"`  // ro.product.device
	TransportID string          `json:"transport_id,omitempty"` // adb transport id
	Protocol    string          `json:"protocol"`               // adb or console
	StateSchema json.RawMessage `json:"state_schema"`           // JSON Schema for settable state
}

// Online reports whether the device accepts commands.
func (d *Device) Online() bool {
	return d.State == StateDevice
}

// DeviceState holds system properties of a device.
type DeviceState map[string]any

// CommandResult is the outcome of a shell command that completed successfully.
type CommandResult struct {
	Device   string        `json:"device"`
	Command  []string      `json:"command"`
	Output   string        `json:"output"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// DiscoveryEvent represents a device attach/detach event
type DiscoveryEvent struct {
	Type      string    `json:"type"`             // Event type (device_attached, device_detached, state_changed)
	Device    *Device   `json:"device,omitempty"` // Device information if available
	Timestamp time.Time `json:"timestamp"`        // When the event occurred
}

// Protocol constants
const (
	ProtocolADB     = "adb"
	ProtocolConsole = "console"
)

// Connection states as printed by `adb devices`
const (
	StateDevice       = "device"
	StateOffline      = "offline"
	StateUnauthorized = "unauthorized"
	StateRecovery     = "recovery"
	StateBootloader   = "bootloader"
	StateSideload     = "sideload"
)

// Discovery event types
const (
	EventDeviceAttached = "device_attached"
	EventDeviceDetached = "device_detached"
	EventStateChanged   = "state_changed"
)

// Reboot modes
const (
	RebootNormal     = ""
	RebootBootloader = "bootloader"
	RebootRecovery   = "recovery"
)

// PropertySchema is the settable-state schema shared by adb and console
// devices: string-valued system properties, excluding read-only ro.* keys.
var PropertySchema = json.RawMessage(`{
	"type": "object",
	"propertyNames": {"pattern": "^[A-Za-z0-9_.\\-]+$", "not": {"pattern": "^ro\\."}},
	"additionalProperties": {"type": "string", "maxLength": 91},
	"minProperties": 1
}`)

// OutcomeOK is the CommandRecord outcome for a command that succeeded.
const OutcomeOK = "ok"

// ExitCodeUnknown is recorded for commands that produced no exit status.
const ExitCodeUnknown = -1

// CommandRecord describes one executed command for the command log.
type CommandRecord struct {
	Device   string
	Command  []string
	Outcome  string // OutcomeOK or Kind.String()
	Message  string
	ExitCode int
	Duration time.Duration
}

// NewCommandRecord builds the record for a command that finished with err.
func NewCommandRecord(id string, cmd []string, exitCode int, took time.Duration, err error) CommandRecord {
	rec := CommandRecord{
		Device:   id,
		Command:  cmd,
		Outcome:  OutcomeOK,
		ExitCode: exitCode,
		Duration: took,
	}
	if err != nil {
		rec.Outcome = KindOf(err).String()
		rec.Message = err.Error()
	}
	return rec
}

// CommandRecorder persists command outcomes.
type CommandRecorder interface {
	Record(ctx context.Context, rec CommandRecord) error
}
