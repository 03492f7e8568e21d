package adb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/droidhub/pkg/device"
)

// Config configures a Controller.
type Config struct {
	Path         string        // adb binary
	Timeout      time.Duration // per-command timeout
	BootTimeout  time.Duration // wait-for-device after a reboot
	PollInterval time.Duration // device list refresh; <= 0 disables polling
	Runner       Runner
	Recorder     device.CommandRecorder
}

// Controller implements device.Controller and device.EventSubscriber on top
// of the adb command-line client.
type Controller struct {
	cfg    Config
	server *Wrapper

	devices   map[string]device.Device // serial -> device
	devicesMu sync.RWMutex

	// held across `adb devices` and the diff so snapshots commit in order
	refreshMu sync.Mutex

	subscribers   []chan device.DiscoveryEvent
	subscribersMu sync.Mutex

	connected bool
	connMu    sync.RWMutex

	stopChan  chan struct{}
	stopOnce  sync.Once
	pollersWG sync.WaitGroup
}

// NewController checks that adb works, loads the current device list and
// starts the poll loop.
func NewController(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BootTimeout == 0 {
		cfg.BootTimeout = DefaultBootTimeout
	}

	c := &Controller{
		cfg:      cfg,
		devices:  make(map[string]device.Device),
		stopChan: make(chan struct{}),
	}
	c.server = c.wrapper("")

	log.Info().Str("adb", c.server.path).Msg("Initializing adb controller")

	version, err := c.server.Run(ctx, "version")
	if err != nil {
		return nil, fmt.Errorf("adb version: %w", err)
	}
	log.Info().Str("version", firstLine(version)).Msg("adb available")

	if err := c.refresh(ctx); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	if cfg.PollInterval > 0 {
		c.pollersWG.Add(1)
		go c.pollLoop()
	}

	return c, nil
}

func (c *Controller) wrapper(serial string) *Wrapper {
	return NewWrapper(c.cfg.Path, serial, WithRunner(c.cfg.Runner), WithTimeout(c.cfg.Timeout))
}

// pollLoop refreshes the device list until Close.
func (c *Controller) pollLoop() {
	defer c.pollersWG.Done()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
			if err := c.refresh(ctx); err != nil {
				log.Warn().Err(err).Str("kind", device.KindOf(err).String()).Msg("Failed to refresh adb devices")
			}
			cancel()
		}
	}
}

// refresh reloads the device list and publishes the differences.
func (c *Controller) refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	list, err := c.server.Devices(ctx)
	c.setConnected(err == nil)
	if err != nil {
		return err
	}

	current := make(map[string]device.Device, len(list))
	for _, d := range list {
		current[d.ID] = d
	}

	c.devicesMu.Lock()
	previous := c.devices
	c.devices = current
	c.devicesMu.Unlock()

	now := time.Now()
	for id, d := range current {
		d := d
		old, seen := previous[id]
		switch {
		case !seen:
			log.Info().Str("device", id).Str("state", d.State).Msg("Device attached")
			c.publishEvent(device.DiscoveryEvent{Type: device.EventDeviceAttached, Device: &d, Timestamp: now})
		case old.State != d.State:
			log.Info().Str("device", id).Str("from", old.State).Str("to", d.State).Msg("Device state changed")
			c.publishEvent(device.DiscoveryEvent{Type: device.EventStateChanged, Device: &d, Timestamp: now})
		}
	}
	for id, d := range previous {
		if _, ok := current[id]; ok {
			continue
		}
		d := d
		log.Info().Str("device", id).Msg("Device detached")
		c.publishEvent(device.DiscoveryEvent{Type: device.EventDeviceDetached, Device: &d, Timestamp: now})
	}

	return nil
}

// publishEvent sends a discovery event to all subscribers without blocking.
func (c *Controller) publishEvent(evt device.DiscoveryEvent) {
	c.subscribersMu.Lock()
	defer c.subscribersMu.Unlock()

	for _, ch := range c.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (c *Controller) setConnected(v bool) {
	c.connMu.Lock()
	c.connected = v
	c.connMu.Unlock()
}

// online returns the device if it is attached and accepting commands. The
// cached state may be a poll interval old, so it is confirmed with get-state.
func (c *Controller) online(ctx context.Context, id string) (*device.Device, error) {
	d, err := c.GetDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.Online() {
		return nil, device.NewDeviceUnreachableError(fmt.Sprintf("device %s: device is %s", id, d.State))
	}
	if _, err := c.wrapper(id).GetState(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (c *Controller) record(ctx context.Context, id string, cmd []string, exitCode int, start time.Time, err error) {
	if c.cfg.Recorder == nil {
		return
	}
	rec := device.NewCommandRecord(id, cmd, exitCode, time.Since(start), err)
	if rerr := c.cfg.Recorder.Record(ctx, rec); rerr != nil {
		log.Warn().Err(rerr).Str("device", id).Msg("Failed to record command")
	}
}

// --- device.Controller interface ---

func (c *Controller) ListDevices(ctx context.Context) ([]device.Device, error) {
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	c.devicesMu.RLock()
	defer c.devicesMu.RUnlock()

	result := make([]device.Device, 0, len(c.devices))
	for _, d := range c.devices {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (c *Controller) GetDevice(ctx context.Context, id string) (*device.Device, error) {
	c.devicesMu.RLock()
	d, ok := c.devices[id]
	c.devicesMu.RUnlock()
	if ok {
		return &d, nil
	}

	// Not cached; the device may have attached since the last poll
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	c.devicesMu.RLock()
	d, ok = c.devices[id]
	c.devicesMu.RUnlock()
	if !ok {
		return nil, device.ErrNotFound
	}
	return &d, nil
}

func (c *Controller) RunShell(ctx context.Context, id, command string) (*device.CommandResult, error) {
	if _, err := c.online(ctx, id); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := c.wrapper(id).Shell(ctx, command)
	exitCode := 0
	switch {
	case res != nil:
		exitCode = res.ExitCode
	case err != nil:
		exitCode = device.ExitCodeUnknown
	}
	c.record(ctx, id, []string{"shell", command}, exitCode, start, err)
	return res, err
}

func (c *Controller) GetDeviceState(ctx context.Context, id string) (device.DeviceState, error) {
	if _, err := c.online(ctx, id); err != nil {
		return nil, err
	}

	props, err := c.wrapper(id).GetProp(ctx)
	if err != nil {
		return nil, err
	}

	state := make(device.DeviceState, len(props))
	for k, v := range props {
		state[k] = v
	}
	return state, nil
}

func (c *Controller) SetDeviceState(ctx context.Context, id string, state map[string]any) (device.DeviceState, error) {
	if _, err := c.online(ctx, id); err != nil {
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

	w := c.wrapper(id)
	for _, k := range keys {
		value := state[k].(string)
		start := time.Now()
		err := w.SetProp(ctx, k, value)
		c.record(ctx, id, []string{"shell", "setprop", k, value}, exitCodeOf(err), start, err)
		if err != nil {
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

	if _, err := c.GetDevice(ctx, id); err != nil {
		return err
	}

	start := time.Now()
	err := c.wrapper(id).Reboot(ctx, mode)
	cmd := []string{"reboot"}
	if mode != device.RebootNormal {
		cmd = append(cmd, mode)
	}
	c.record(ctx, id, cmd, exitCodeOf(err), start, err)
	return err
}

// WaitForDevice blocks until the device is back online, up to BootTimeout.
func (c *Controller) WaitForDevice(ctx context.Context, id string) error {
	w := NewWrapper(c.cfg.Path, id, WithRunner(c.cfg.Runner), WithTimeout(c.cfg.BootTimeout))

	start := time.Now()
	err := w.WaitForDevice(ctx)
	c.record(ctx, id, []string{"wait-for-device"}, exitCodeOf(err), start, err)
	if err != nil {
		return err
	}
	return c.refresh(ctx)
}

func (c *Controller) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

func (c *Controller) Close() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.pollersWG.Wait()
	c.setConnected(false)

	log.Info().Msg("adb controller closed")
}

// --- device.EventSubscriber interface ---

func (c *Controller) Subscribe() chan device.DiscoveryEvent {
	ch := make(chan device.DiscoveryEvent, 16)
	c.subscribersMu.Lock()
	c.subscribers = append(c.subscribers, ch)
	c.subscribersMu.Unlock()
	return ch
}

func (c *Controller) Unsubscribe(ch chan device.DiscoveryEvent) {
	c.subscribersMu.Lock()
	defer c.subscribersMu.Unlock()

	for i, sub := range c.subscribers {
		if sub == ch {
			c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// exitCodeOf is the exit code recorded for commands whose output is not kept.
func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	return device.ExitCodeUnknown
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' || r == '\r' {
			return s[:i]
		}
	}
	return s
}
