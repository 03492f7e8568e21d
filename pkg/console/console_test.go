package console

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/droidhub/pkg/device"
)

const testPort = "/dev/ttyUSB0"

// fakePort emulates a UART shell: it echoes each line and appends whatever
// the shell function prints for it.
type fakePort struct {
	mu      sync.Mutex
	pending bytes.Buffer
	lines   []string
	closed  bool
	readErr error
	script  []string
	shell   func(cmd string) (out string, status int, done bool)
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, line := range strings.Split(strings.TrimSuffix(string(b), "\n"), "\n") {
		p.lines = append(p.lines, line)
		p.pending.WriteString(line + "\r\n")

		if !strings.HasPrefix(line, "echo __droidhub_") {
			if line != "" {
				p.script = append(p.script, line)
			}
			continue
		}
		cmd := strings.Join(p.script, "\n")
		p.script = nil
		if p.shell == nil {
			continue
		}
		marker := strings.TrimSuffix(strings.TrimPrefix(line, "echo "), "$?")
		out, status, done := p.shell(cmd)
		p.pending.WriteString(strings.ReplaceAll(out, "\n", "\r\n"))
		if done {
			p.pending.WriteString(marker + strconv.Itoa(status) + "\r\nconsole:/ $ ")
		}
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.readErr != nil {
		defer p.mu.Unlock()
		return 0, p.readErr
	}
	if p.pending.Len() == 0 {
		p.mu.Unlock()
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	defer p.mu.Unlock()
	return p.pending.Read(b)
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }

func (p *fakePort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending.Reset()
	return nil
}

func newShellPort() *fakePort {
	props := map[string]string{"ro.product.model": "Pixel 7"}
	p := &fakePort{}
	p.shell = func(cmd string) (string, int, bool) {
		switch {
		case cmd == "echo hello", cmd == "echo hello # greet":
			return "hello\n", 0, true
		case cmd == "sleep 1 &":
			return "[1] 4242\n", 0, true
		case cmd == "false":
			return "", 1, true
		case strings.HasPrefix(cmd, "sleep"):
			return "", 0, false
		case cmd == "getprop":
			var b strings.Builder
			for k, v := range props {
				b.WriteString("[" + k + "]: [" + v + "]\n")
			}
			return b.String(), 0, true
		case strings.HasPrefix(cmd, "setprop "):
			parts := strings.Fields(cmd)
			props[parts[1]] = parts[2]
			return "", 0, true
		}
		return "/system/bin/sh: " + cmd + ": not found\n", 127, true
	}
	return p
}

func TestConsole_Shell(t *testing.T) {
	c := New(testPort, newShellPort(), time.Second)

	res, err := c.Shell(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", res.Output)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, testPort, res.Device)
}

func TestConsole_ShellStatusOnOwnLine(t *testing.T) {
	p := newShellPort()
	c := New(testPort, p, time.Second)

	for cmd, want := range map[string]string{
		"echo hello # greet": "hello\n",
		"sleep 1 &":          "[1] 4242\n",
	} {
		res, err := c.Shell(context.Background(), cmd)
		require.NoError(t, err, cmd)
		assert.Equal(t, want, res.Output, cmd)
		assert.Equal(t, cmd, p.lines[len(p.lines)-2])
	}
}

func TestConsole_ShellFailure(t *testing.T) {
	c := New(testPort, newShellPort(), time.Second)

	res, err := c.Shell(context.Background(), "false")
	require.NotNil(t, res)
	assert.Equal(t, 1, res.ExitCode)
	assert.EqualError(t, err, "device /dev/ttyUSB0: adb command 'shell false' failed with message: 'exit code 1'")

	var failed *device.CommandFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, testPort, failed.Device())
}

func TestConsole_ShellTimeout(t *testing.T) {
	c := New(testPort, newShellPort(), 50*time.Millisecond)

	_, err := c.Shell(context.Background(), "sleep 100")
	assert.EqualError(t, err, "device /dev/ttyUSB0: console command 'sleep 100' timed out after 50ms")
	assert.Equal(t, device.KindCommandTimeout, device.KindOf(err))
}

func TestConsole_ReadError(t *testing.T) {
	p := newShellPort()
	p.readErr = errors.New("device disconnected")
	c := New(testPort, p, time.Second)

	_, err := c.Shell(context.Background(), "echo hello")
	assert.EqualError(t, err, "device /dev/ttyUSB0: serial read: device disconnected")
	assert.ErrorIs(t, err, device.ErrNotConnected)
}

func TestConsole_MarkersAreUnique(t *testing.T) {
	p := newShellPort()
	c := New(testPort, p, time.Second)

	_, err := c.Shell(context.Background(), "echo hello")
	require.NoError(t, err)
	_, err = c.Shell(context.Background(), "echo hello")
	require.NoError(t, err)

	require.Len(t, p.lines, 4)
	assert.Equal(t, "echo hello", p.lines[0])
	assert.True(t, strings.HasPrefix(p.lines[1], "echo __droidhub_"))
	assert.NotEqual(t, p.lines[1], p.lines[3])
}

type memRecorder struct {
	recs []device.CommandRecord
}

func (m *memRecorder) Record(ctx context.Context, rec device.CommandRecord) error {
	m.recs = append(m.recs, rec)
	return nil
}

func TestController(t *testing.T) {
	p := newShellPort()
	rec := &memRecorder{}
	c := NewController(New(testPort, p, time.Second), rec)
	ctx := context.Background()

	devices, err := c.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, testPort, devices[0].ID)
	assert.True(t, devices[0].Online())

	_, err = c.GetDevice(ctx, "emulator-5554")
	assert.ErrorIs(t, err, device.ErrNotFound)

	state, err := c.SetDeviceState(ctx, testPort, map[string]any{"persist.sys.locale": "fr-FR"})
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", state["persist.sys.locale"])
	assert.Equal(t, "Pixel 7", state["ro.product.model"])

	_, err = c.RunShell(ctx, testPort, "frob")
	assert.Equal(t, device.KindCommandFailed, device.KindOf(err))

	require.NoError(t, c.Reboot(ctx, testPort, device.RebootRecovery))
	assert.Equal(t, "reboot recovery", p.lines[len(p.lines)-1])

	p.readErr = errors.New("device disconnected")
	_, err = c.RunShell(ctx, testPort, "echo hello")
	assert.Equal(t, device.KindDeviceUnreachable, device.KindOf(err))
	p.readErr = nil

	require.Len(t, rec.recs, 4)
	assert.Equal(t, device.ExitCodeUnknown, rec.recs[3].ExitCode)
	assert.Equal(t, device.OutcomeOK, rec.recs[0].Outcome)
	assert.Equal(t, "command_failed", rec.recs[1].Outcome)
	assert.Equal(t, 127, rec.recs[1].ExitCode)
	assert.Equal(t, []string{"shell", "reboot recovery"}, rec.recs[2].Command)

	c.Close()
	assert.True(t, p.closed)
	assert.False(t, c.IsConnected())

	_, err = c.RunShell(ctx, testPort, "echo hello")
	assert.Equal(t, device.KindDeviceUnreachable, device.KindOf(err))
}
