package device

import "context"

// NullController is a no-op controller used when no transport could be started.
// It allows the API to run in limited mode without adb or a serial console.
type NullController struct{}

// NewNullController creates a new NullController.
func NewNullController() *NullController {
	return &NullController{}
}

func (c *NullController) ListDevices(ctx context.Context) ([]Device, error) {
	return []Device{}, nil
}

func (c *NullController) GetDevice(ctx context.Context, id string) (*Device, error) {
	return nil, ErrNotFound
}

func (c *NullController) RunShell(ctx context.Context, id, command string) (*CommandResult, error) {
	return nil, unreachable(id)
}

func (c *NullController) GetDeviceState(ctx context.Context, id string) (DeviceState, error) {
	return nil, unreachable(id)
}

func (c *NullController) SetDeviceState(ctx context.Context, id string, state map[string]any) (DeviceState, error) {
	return nil, unreachable(id)
}

func (c *NullController) Reboot(ctx context.Context, id, mode string) error {
	return unreachable(id)
}

func (c *NullController) IsConnected() bool {
	return false
}

func (c *NullController) Close() {}

func unreachable(id string) error {
	return NewDeviceUnreachableError("device " + id + ": no transport available")
}

// NullEventSubscriber is a no-op event subscriber used alongside NullController.
type NullEventSubscriber struct{}

// NewNullEventSubscriber creates a new NullEventSubscriber.
func NewNullEventSubscriber() *NullEventSubscriber {
	return &NullEventSubscriber{}
}

func (s *NullEventSubscriber) Subscribe() chan DiscoveryEvent {
	// Never sent to; callers should check IsConnected() on the controller
	return make(chan DiscoveryEvent)
}

func (s *NullEventSubscriber) Unsubscribe(ch chan DiscoveryEvent) {
	close(ch)
}
