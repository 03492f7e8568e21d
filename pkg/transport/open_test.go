package transport

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/droidhub/pkg/adb"
	"github.com/urmzd/droidhub/pkg/console"
	"github.com/urmzd/droidhub/pkg/device"
)

type scriptedRunner struct{}

func (scriptedRunner) Run(ctx context.Context, name string, args []string) (adb.Output, error) {
	switch args[len(args)-1] {
	case "version":
		return adb.Output{Stdout: "Android Debug Bridge version 1.0.41\n"}, nil
	default:
		return adb.Output{Stdout: "List of devices attached\nemulator-5554\tdevice product:sdk model:sdk_gphone64 device:emu64 transport_id:1\n"}, nil
	}
}

func TestOpen_ADB(t *testing.T) {
	ctrl, sub := Open(context.Background(), Options{ADBPath: "adb", Runner: scriptedRunner{}})
	defer ctrl.Close()

	_, ok := ctrl.(*adb.Controller)
	assert.True(t, ok)
	assert.Equal(t, ctrl, sub)

	d, err := ctrl.GetDevice(context.Background(), "emulator-5554")
	assert.NoError(t, err)
	assert.True(t, d.Online())
}

func TestOpen_ADBMissingFallsBack(t *testing.T) {
	ctrl, sub := Open(context.Background(), Options{ADBPath: filepath.Join(t.TempDir(), "no-adb")})

	_, ok := ctrl.(*device.NullController)
	assert.True(t, ok)
	_, ok = sub.(*device.NullEventSubscriber)
	assert.True(t, ok)
	assert.False(t, ctrl.IsConnected())
}

func TestOpen_ConsoleMissingFallsBack(t *testing.T) {
	ctrl, _ := Open(context.Background(), Options{ConsolePath: filepath.Join(t.TempDir(), "ttyUSB9")})

	_, ok := ctrl.(*device.NullController)
	assert.True(t, ok)
}

type idlePort struct{}

func (idlePort) Read(b []byte) (int, error) { return 0, nil }
func (idlePort) Write(b []byte) (int, error) { return len(b), nil }
func (idlePort) Close() error { return nil }
func (idlePort) SetReadTimeout(time.Duration) error { return nil }
func (idlePort) ResetInputBuffer() error { return nil }

func TestOpen_Console(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	orig := openSerial
	openSerial = func(path string, baud int) (console.Port, error) { return idlePort{}, nil }
	t.Cleanup(func() { openSerial = orig })

	ctrl, sub := Open(context.Background(), Options{ConsolePath: "/dev/ttyUSB0", CommandTimeout: time.Second})
	defer ctrl.Close()

	_, ok := ctrl.(*console.Controller)
	require.True(t, ok)
	_, ok = sub.(*device.NullEventSubscriber)
	assert.True(t, ok)

	d, err := ctrl.GetDevice(context.Background(), "/dev/ttyUSB0")
	require.NoError(t, err)
	assert.Equal(t, device.ProtocolConsole, d.Protocol)

	// Opening is logged by console.OpenSerial, not here
	assert.Equal(t, 0, strings.Count(buf.String(), "Serial console opened"))
}
