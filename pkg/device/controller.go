package device

import (
	"context"
	"fmt"
)

// Controller defines the interface for controlling Android devices.
// This abstraction lets the API and MCP surfaces work with adb and
// serial console transports through a unified interface.
type Controller interface {
	// ListDevices returns all attached devices
	ListDevices(ctx context.Context) ([]Device, error)

	// GetDevice returns a single device by serial
	GetDevice(ctx context.Context, id string) (*Device, error)

	// RunShell runs a shell command on the device
	RunShell(ctx context.Context, id, command string) (*CommandResult, error)

	// GetDeviceState retrieves the system properties of a device
	GetDeviceState(ctx context.Context, id string) (DeviceState, error)

	// SetDeviceState sets system properties and returns the refreshed state
	SetDeviceState(ctx context.Context, id string, state map[string]any) (DeviceState, error)

	// Reboot restarts the device into the given mode
	Reboot(ctx context.Context, id, mode string) error

	// IsConnected returns true if the transport is usable
	IsConnected() bool

	// Close releases the transport
	Close()
}

// EventSubscriber defines the interface for subscribing to device events
type EventSubscriber interface {
	// Subscribe returns a channel that receives discovery events
	Subscribe() chan DiscoveryEvent

	// Unsubscribe removes a subscription
	Unsubscribe(ch chan DiscoveryEvent)
}

// Waiter is implemented by transports that can block until a rebooted device
// is back online.
type Waiter interface {
	WaitForDevice(ctx context.Context, id string) error
}

// WaitForDevice waits through c when its transport supports it and returns
// ErrUnsupported otherwise.
func WaitForDevice(ctx context.Context, c Controller, id string) error {
	w, ok := c.(Waiter)
	if !ok {
		return fmt.Errorf("%w: transport cannot wait for device %s", ErrUnsupported, id)
	}
	return w.WaitForDevice(ctx, id)
}
