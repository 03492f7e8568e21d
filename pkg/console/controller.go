package console

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/droidhub/pkg/adb"
	"github.com/urmzd/droidhub/pkg/device"
)

// Controller exposes the single device behind a serial console through
// device.Controller. The device ID is the port path.
type Controller struct {
	console  *Console
	recorder device.CommandRecorder

	connected bool
	connMu    sync.RWMutex
}

// NewController takes ownership of console.
func NewController(console *Console, recorder device.CommandRecorder) *Controller {
	return &Controller{console: console, recorder: recorder, connected: true}
}

func (c *Controller) self() device.Device {
	state := device.StateDevice
	if !c.IsConnected() {
		state = device.StateOffline
	}
	return device.Device{
		ID:          c.console.Path(),
		Name:        "serial console",
		State:       state,
		Protocol:    device.ProtocolConsole,
		StateSchema: device.PropertySchema,
	}
}

func (c *Controller) check(id string) error {
	if id != c.console.Path() {
		return device.ErrNotFound
	}
	if !c.IsConnected() {
		return device.NewDeviceUnreachableError(fmt.Sprintf("device %s: console closed", id))
	}
	return nil
}

func (c *Controller) shell(ctx context.Context, command string) (*device.CommandResult, error) {
	start := time.Now()
	res, err := c.console.Shell(ctx, command)
	exitCode := 0
	switch {
	case res != nil:
		exitCode = res.ExitCode
	case err != nil:
		exitCode = device.ExitCodeUnknown
	}
	c.record(ctx, command, exitCode, start, err)
	return res, err
}

func (c *Controller) record(ctx context.Context, command string, exitCode int, start time.Time, err error) {
	if c.recorder == nil {
		return
	}
	rec := device.NewCommandRecord(c.console.Path(), []string{"shell", command}, exitCode, time.Since(start), err)
	if rerr := c.recorder.Record(ctx, rec); rerr != nil {
		log.Warn().Err(rerr).Str("device", rec.Device).Msg("Failed to record command")
	}
}

func (c *Controller) ListDevices(ctx context.Context) ([]device.Device, error) {
	return []device.Device{c.self()}, nil
}

func (c *Controller) GetDevice(ctx context.Context, id string) (*device.Device, error) {
	if id != c.console.Path() {
		return nil, device.ErrNotFound
	}
	d := c.self()
	return &d, nil
}

func (c *Controller) RunShell(ctx context.Context, id, command string) (*device.CommandResult, error) {
	if err := c.check(id); err != nil {
		return nil, err
	}
	return c.shell(ctx, command)
}

func (c *Controller) GetDeviceState(ctx context.Context, id string) (device.DeviceState, error) {
	if err := c.check(id); err != nil {
		return nil, err
	}
	res, err := c.console.Shell(ctx, "getprop")
	if err != nil {
		return nil, err
	}

	state := make(device.DeviceState)
	for k, v := range adb.ParseProps(res.Output) {
		state[k] = v
	}
	return state, nil
}

func (c *Controller) SetDeviceState(ctx context.Context, id string, state map[string]any) (device.DeviceState, error) {
	if err := c.check(id); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(state))
	for k, v := range state {
		if _, ok := v.(string); !ok {
			return nil, fmt.Errorf("%w: property %q must be a string", device.ErrValidation, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := c.shell(ctx, "setprop "+adb.Quote(k)+" "+adb.Quote(state[k].(string))); err != nil {
			return nil, err
		}
	}
	return c.GetDeviceState(ctx, id)
}

func (c *Controller) Reboot(ctx context.Context, id, mode string) error {
	switch mode {
	case device.RebootNormal, device.RebootBootloader, device.RebootRecovery:
	default:
		return fmt.Errorf("%w: unknown reboot mode %q", device.ErrValidation, mode)
	}
	if err := c.check(id); err != nil {
		return err
	}

	cmd := "reboot"
	if mode != device.RebootNormal {
		cmd += " " + mode
	}
	start := time.Now()
	err := c.console.Send(cmd)
	exitCode := 0
	if err != nil {
		exitCode = device.ExitCodeUnknown
	}
	c.record(ctx, cmd, exitCode, start, err)
	return err
}

func (c *Controller) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

func (c *Controller) Close() {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	if err := c.console.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close serial console")
	}
	log.Info().Msg("Console controller closed")
}
