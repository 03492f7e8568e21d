package adb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/droidhub/pkg/device"
)

// DefaultBootTimeout bounds wait-for-device after a reboot.
const DefaultBootTimeout = 2 * time.Minute

// DefaultTimeout bounds a single adb invocation when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// shellStatusMarker is echoed after every shell command so the remote exit
// status survives adb versions that always exit 0 for `adb shell`.
const shellStatusMarker = "%"

// unreachablePattern matches the errors adb prints when the target cannot be
// contacted at all, as opposed to a command that ran and failed.
var unreachablePattern = regexp.MustCompile(`(?im)^(error: )?(device '[^']*' not found|device (offline|unauthorized|still authorizing|not found)|no devices/emulators found|closed$|cannot connect to |failed to connect to )`)

// Wrapper runs adb against a single device, or against the adb server when
// created without a serial.
type Wrapper struct {
	path    string
	serial  string
	timeout time.Duration
	runner  Runner
}

// Option configures a Wrapper.
type Option func(*Wrapper)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(w *Wrapper) { w.runner = r }
}

// WithTimeout sets the per-command timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(w *Wrapper) { w.timeout = d }
}

// NewWrapper creates a Wrapper for the adb binary at path.
func NewWrapper(path, serial string, opts ...Option) *Wrapper {
	w := &Wrapper{
		path:    path,
		serial:  serial,
		timeout: DefaultTimeout,
		runner:  ExecRunner{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.path == "" {
		w.path = "adb"
	}
	return w
}

// Serial returns the device serial, or "" for the server wrapper.
func (w *Wrapper) Serial() string {
	return w.serial
}

// Run executes `adb [-s serial] args...` and returns stdout.
func (w *Wrapper) Run(ctx context.Context, args ...string) (string, error) {
	out, err := w.exec(ctx, args, args)
	return out.Stdout, err
}

// exec runs args and classifies failures; display is the command reported in errors.
func (w *Wrapper) exec(ctx context.Context, display, args []string) (Output, error) {
	full := args
	if w.serial != "" {
		full = append([]string{"-s", w.serial}, args...)
	}

	start := time.Now()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	out, err := w.runner.Run(ctx, w.path, full)
	took := time.Since(start)

	log.Debug().
		Str("device", w.serial).
		Strs("cmd", display).
		Int("exit_code", out.ExitCode).
		Dur("took", took).
		Msg("adb")

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return out, device.NewCommandTimeoutError(fmt.Sprintf("%sadb command '%s' timed out after %s",
				w.prefix(), strings.Join(display, " "), budget(ctx, start)))
		case errors.Is(err, context.Canceled):
			return out, fmt.Errorf("adb %s: %w", strings.Join(display, " "), err)
		default:
			return out, device.NewBaseError(fmt.Sprintf("%sfailed to run %s: %v", w.prefix(), w.path, err))
		}
	}

	if out.ExitCode != 0 {
		stderr := strings.TrimSpace(out.Stderr)
		if reason := unreachableReason(stderr); reason != "" {
			return out, device.NewDeviceUnreachableError(w.prefix() + reason)
		}
		msg := stderr
		if msg == "" {
			msg = fmt.Sprintf("exit code %d", out.ExitCode)
		}
		return out, device.NewCommandFailedError(display, msg, w.serial)
	}

	return out, nil
}

// Shell runs command on the device. On a non-zero remote status the result
// is returned together with a CommandFailedError.
func (w *Wrapper) Shell(ctx context.Context, command string) (*device.CommandResult, error) {
	display := []string{"shell", command}
	start := time.Now()

	out, err := w.exec(ctx, display, []string{"shell", WithExitStatus(command, shellStatusMarker)})
	if err != nil {
		return nil, err
	}

	output, status, ok := splitStatus(out.Stdout)
	if !ok {
		return nil, device.NewBaseError(fmt.Sprintf("%sshell command '%s' produced no exit status", w.prefix(), command))
	}

	res := &device.CommandResult{
		Device:   w.serial,
		Command:  display,
		Output:   output,
		ExitCode: status,
		Duration: time.Since(start),
	}
	if status != 0 {
		return res, device.NewCommandFailedError(display, fmt.Sprintf("exit code %d", status), w.serial)
	}
	return res, nil
}

// WithExitStatus appends a line that prints marker followed by the exit
// status of command. The echo sits on its own line so a trailing comment,
// background job or line continuation in command cannot swallow it.
func WithExitStatus(command, marker string) string {
	sep := "\n"
	if strings.HasSuffix(command, "\\") {
		sep = "\n\n"
	}
	return command + sep + "echo " + marker + "$?"
}

// GetState returns the connection state; any state other than "device" is
// reported as unreachable.
func (w *Wrapper) GetState(ctx context.Context) (string, error) {
	out, err := w.Run(ctx, "get-state")
	if err != nil {
		return "", err
	}
	state := strings.TrimSpace(out)
	if state != device.StateDevice {
		return state, device.NewDeviceUnreachableError(fmt.Sprintf("%sdevice is %s", w.prefix(), state))
	}
	return state, nil
}

// WaitForDevice blocks until the device is online or the timeout elapses.
func (w *Wrapper) WaitForDevice(ctx context.Context) error {
	_, err := w.Run(ctx, "wait-for-device")
	return err
}

// Reboot restarts the device into mode ("" for a normal boot).
func (w *Wrapper) Reboot(ctx context.Context, mode string) error {
	args := []string{"reboot"}
	if mode != device.RebootNormal {
		args = append(args, mode)
	}
	_, err := w.Run(ctx, args...)
	return err
}

// GetProp returns all system properties.
func (w *Wrapper) GetProp(ctx context.Context) (map[string]string, error) {
	res, err := w.Shell(ctx, "getprop")
	if err != nil {
		return nil, err
	}
	return ParseProps(res.Output), nil
}

// SetProp sets a single system property.
func (w *Wrapper) SetProp(ctx context.Context, key, value string) error {
	_, err := w.Shell(ctx, "setprop "+Quote(key)+" "+Quote(value))
	return err
}

// Devices lists the devices known to the adb server.
func (w *Wrapper) Devices(ctx context.Context) ([]device.Device, error) {
	out, err := w.Run(ctx, "devices", "-l")
	if err != nil {
		return nil, err
	}
	return ParseDevices(out), nil
}

func (w *Wrapper) prefix() string {
	if w.serial == "" {
		return ""
	}
	return "device " + w.serial + ": "
}

func unreachableReason(stderr string) string {
	loc := unreachablePattern.FindStringIndex(stderr)
	if loc == nil {
		return ""
	}
	line := stderr[loc[0]:]
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimPrefix(strings.TrimSpace(line), "error: ")
}

// splitStatus separates command output from the trailing status marker.
func splitStatus(stdout string) (string, int, bool) {
	trimmed := strings.TrimRight(stdout, "\r\n")
	idx := strings.LastIndex(trimmed, shellStatusMarker)
	if idx < 0 {
		return stdout, 0, false
	}
	status, err := strconv.Atoi(trimmed[idx+len(shellStatusMarker):])
	if err != nil {
		return stdout, 0, false
	}
	return trimmed[:idx], status, true
}

// budget is the time the command was given before its deadline.
func budget(ctx context.Context, start time.Time) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return time.Since(start).Round(time.Millisecond)
	}
	d := deadline.Sub(start)
	if r := d.Round(time.Second); r > 0 {
		return r
	}
	return d.Round(time.Millisecond)
}
