package mcp

import (
	"encoding/json"

	"github.com/urmzd/droidhub/pkg/device"
)

// --- Health Tool ---

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status     string `json:"status" jsonschema:"description=Overall health status (healthy or unhealthy)"`
	Controller string `json:"controller" jsonschema:"description=Transport connection status"`
	Timestamp  string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// --- List Devices Tool ---

// ListDevicesOutput is the output for the list_devices tool
type ListDevicesOutput struct {
	Devices []DeviceInfo `json:"devices" jsonschema:"description=Attached devices"`
	Count   int          `json:"count" jsonschema:"description=Total number of devices"`
}

// DeviceInfo represents a device in tool outputs
type DeviceInfo struct {
	Serial      string          `json:"serial" jsonschema:"description=adb serial or console port path"`
	Name        string          `json:"name" jsonschema:"description=User-friendly device name"`
	State       string          `json:"state" jsonschema:"description=Connection state"`
	Protocol    string          `json:"protocol" jsonschema:"description=Transport (adb or console)"`
	Product     string          `json:"product,omitempty" jsonschema:"description=Product name"`
	Model       string          `json:"model,omitempty" jsonschema:"description=Device model"`
	TransportID string          `json:"transport_id,omitempty" jsonschema:"description=adb transport id"`
	StateSchema json.RawMessage `json:"state_schema,omitempty" jsonschema:"description=JSON Schema for settable state"`
}

// DeviceToInfo converts a device.Device to a DeviceInfo
func DeviceToInfo(d *device.Device) DeviceInfo {
	return DeviceInfo{
		Serial:      d.ID,
		Name:        d.Name,
		State:       d.State,
		Protocol:    d.Protocol,
		Product:     d.Product,
		Model:       d.Model,
		TransportID: d.TransportID,
		StateSchema: d.StateSchema,
	}
}

// --- Get Device Tool ---

// GetDeviceOutput is the output for the get_device tool
type GetDeviceOutput struct {
	Device DeviceInfo `json:"device" jsonschema:"description=Device information"`
}

// --- Device State Tools ---

// GetDeviceStateOutput is the output for the get_device_state tool
type GetDeviceStateOutput struct {
	DeviceID string         `json:"device_id" jsonschema:"description=Device serial"`
	State    map[string]any `json:"state" jsonschema:"description=System properties"`
}

// SetDeviceStateOutput is the output for the set_device_state tool
type SetDeviceStateOutput struct {
	DeviceID string         `json:"device_id" jsonschema:"description=Device serial"`
	State    map[string]any `json:"state" jsonschema:"description=System properties after the update"`
}

// --- Shell Tool ---

// RunShellOutput is the output for the run_shell tool
type RunShellOutput struct {
	DeviceID   string `json:"device_id" jsonschema:"description=Device serial"`
	Output     string `json:"output" jsonschema:"description=Combined command output"`
	ExitCode   int    `json:"exit_code" jsonschema:"description=Shell exit status"`
	DurationMS int64  `json:"duration_ms" jsonschema:"description=Wall time in milliseconds"`
}

// --- Reboot Tool ---

// RebootOutput is the output for the reboot tool
type RebootOutput struct {
	DeviceID string `json:"device_id" jsonschema:"description=Device serial"`
	Mode     string `json:"mode" jsonschema:"description=Reboot mode"`
	Message  string `json:"message" jsonschema:"description=Human-readable status"`
}

// --- Command History Tool ---

// CommandHistoryOutput is the output for the command_history tool
type CommandHistoryOutput struct {
	DeviceID string          `json:"device_id" jsonschema:"description=Device serial"`
	Commands []CommandRecord `json:"commands" jsonschema:"description=Recent commands, newest first"`
}

// CommandRecord is one command log entry
type CommandRecord struct {
	Command   string `json:"command" jsonschema:"description=Command tokens joined by spaces"`
	Outcome   string `json:"outcome" jsonschema:"description=ok or the error kind"`
	Message   string `json:"message,omitempty" jsonschema:"description=Error message when the command failed"`
	ExitCode  int    `json:"exit_code" jsonschema:"description=Exit status"`
	CreatedAt string `json:"created_at" jsonschema:"description=ISO8601 timestamp"`
}
