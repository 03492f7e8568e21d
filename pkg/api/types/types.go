package types

import (
	"encoding/json"
	"time"
)

// --- Request DTOs ---

// ShellRequest is the request body for POST /devices/:id/shell
type ShellRequest struct {
	Command string `json:"command" binding:"required"`
}

// RebootRequest is the request body for POST /devices/:id/reboot
type RebootRequest struct {
	Mode string `json:"mode"`
	Wait bool   `json:"wait"` // block until the device is back online
}

// --- Response DTOs ---

// ErrorResponse represents an API error. Error is the error kind
// (command_failed, command_timeout, device_unreachable, other, not_found,
// validation_error); Message is the full error text.
type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
	Output   string `json:"output,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status     string    `json:"status"`
	Controller string    `json:"controller"`
	Timestamp  time.Time `json:"timestamp"`
}

// DeviceInfo is the API view of a device
type DeviceInfo struct {
	Serial      string          `json:"serial"`
	Name        string          `json:"name"`
	State       string          `json:"state"`
	Protocol    string          `json:"protocol"`
	Product     string          `json:"product,omitempty"`
	Model       string          `json:"model,omitempty"`
	Device      string          `json:"device,omitempty"`
	TransportID string          `json:"transport_id,omitempty"`
	StateSchema json.RawMessage `json:"state_schema,omitempty"`
}

// ListDevicesResponse is returned from GET /devices
type ListDevicesResponse struct {
	Devices []DeviceInfo `json:"devices"`
	Count   int          `json:"count"`
}

// DeviceResponse is returned from GET /devices/:id
type DeviceResponse struct {
	Device DeviceInfo `json:"device"`
}

// StateResponse is returned from GET/POST /devices/:id/state
type StateResponse struct {
	Device    string         `json:"device"`
	State     map[string]any `json:"state"`
	Timestamp time.Time      `json:"timestamp"`
}

// ShellResponse is returned from POST /devices/:id/shell
type ShellResponse struct {
	Device     string   `json:"device"`
	Command    []string `json:"command"`
	Output     string   `json:"output"`
	ExitCode   int      `json:"exit_code"`
	DurationMS int64    `json:"duration_ms"`
}

// RebootResponse is returned from POST /devices/:id/reboot
type RebootResponse struct {
	Device string `json:"device"`
	Mode   string `json:"mode"`
	Status string `json:"status"`
}

// CommandEntry is one row of the command log
type CommandEntry struct {
	ID         int64     `json:"id"`
	RequestID  string    `json:"request_id"`
	Command    []string  `json:"command"`
	Outcome    string    `json:"outcome"`
	Message    string    `json:"message,omitempty"`
	ExitCode   int       `json:"exit_code"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// CommandsResponse is returned from GET /devices/:id/commands
type CommandsResponse struct {
	Device   string         `json:"device"`
	Commands []CommandEntry `json:"commands"`
	Outcomes map[string]int `json:"outcomes"`
}
