package adb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/droidhub/pkg/device"
)

func TestWrapper_RunPrefixesSerial(t *testing.T) {
	r := &fakeRunner{fn: func(ctx context.Context, args []string) (Output, error) {
		return Output{Stdout: "ok\n"}, nil
	}}
	w := NewWrapper("/opt/adb", "ABC123", WithRunner(r))

	out, err := w.Run(context.Background(), "get-serialno")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
	assert.Equal(t, []string{"-s", "ABC123", "get-serialno"}, r.lastCall())

	server := NewWrapper("", "", WithRunner(r))
	_, err = server.Run(context.Background(), "devices")
	require.NoError(t, err)
	assert.Equal(t, []string{"devices"}, r.lastCall())
	assert.Equal(t, "adb", server.path)
}

func TestWrapper_CommandFailed(t *testing.T) {
	tests := []struct {
		name   string
		serial string
		out    Output
		want   string
	}{
		{
			name:   "stderr becomes the message",
			serial: "ABC123",
			out:    Output{Stderr: "adb: error: failed to stat remote object '/x'\n", ExitCode: 1},
			want:   "device ABC123: adb command 'pull /x' failed with message: 'adb: error: failed to stat remote object '/x''",
		},
		{
			name: "exit code when stderr is empty",
			out:  Output{ExitCode: 1},
			want: "adb command 'pull /x' failed with message: 'exit code 1'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{fn: func(ctx context.Context, args []string) (Output, error) {
				return tt.out, nil
			}}
			w := NewWrapper("adb", tt.serial, WithRunner(r))

			_, err := w.Run(context.Background(), "pull", "/x")
			var failed *device.CommandFailedError
			require.ErrorAs(t, err, &failed)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, []string{"pull", "/x"}, failed.Command())
			assert.Equal(t, tt.serial, failed.Device())
		})
	}
}

func TestWrapper_Unreachable(t *testing.T) {
	for _, stderr := range []string{
		"error: device 'ABC123' not found\n",
		"error: device offline\n",
		"error: device unauthorized.\nThis adb server's $ADB_VENDOR_KEYS is not set\n",
		"error: no devices/emulators found\n",
		"* daemon not running\ncannot connect to daemon at tcp:5037: Connection refused\n",
		"error: closed\n",
	} {
		r := &fakeRunner{fn: func(ctx context.Context, args []string) (Output, error) {
			return Output{Stderr: stderr, ExitCode: 1}, nil
		}}
		w := NewWrapper("adb", "ABC123", WithRunner(r))

		_, err := w.Run(context.Background(), "get-state")
		var unreachable *device.DeviceUnreachableError
		require.ErrorAs(t, err, &unreachable, stderr)
		assert.Contains(t, err.Error(), "device ABC123: ")
		assert.NotContains(t, err.Error(), "error: ")
	}
}

func TestWrapper_NotFoundInOutputIsNotUnreachable(t *testing.T) {
	r := &fakeRunner{fn: func(ctx context.Context, args []string) (Output, error) {
		return Output{Stderr: "/system/bin/sh: frob: not found\n", ExitCode: 127}, nil
	}}
	w := NewWrapper("adb", "ABC123", WithRunner(r))

	_, err := w.Run(context.Background(), "shell", "frob")
	assert.Equal(t, device.KindCommandFailed, device.KindOf(err))
}

func TestWrapper_Timeout(t *testing.T) {
	r := &fakeRunner{fn: func(ctx context.Context, args []string) (Output, error) {
		<-ctx.Done()
		return Output{ExitCode: -1}, ctx.Err()
	}}
	w := NewWrapper("adb", "ABC123", WithRunner(r), WithTimeout(20*time.Millisecond))

	_, err := w.Run(context.Background(), "shell", "sleep", "60")
	var timeout *device.CommandTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "device ABC123: adb command 'shell sleep 60' timed out after 20ms", err.Error())
	assert.ErrorIs(t, err, device.ErrTimeout)
}

func TestWrapper_Canceled(t *testing.T) {
	r := &fakeRunner{fn: func(ctx context.Context, args []string) (Output, error) {
		<-ctx.Done()
		return Output{}, ctx.Err()
	}}
	w := NewWrapper("adb", "", WithRunner(r))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Run(ctx, "devices")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, device.ErrDevice)
}

func TestWrapper_ExecFailure(t *testing.T) {
	r := &fakeRunner{fn: func(ctx context.Context, args []string) (Output, error) {
		return Output{}, errors.New(`exec: "adb": executable file not found in $PATH`)
	}}
	w := NewWrapper("adb", "", WithRunner(r))

	_, err := w.Run(context.Background(), "version")
	var base *device.BaseError
	require.ErrorAs(t, err, &base)
	assert.Equal(t, `failed to run adb: exec: "adb": executable file not found in $PATH`, err.Error())
}

func TestWrapper_Shell(t *testing.T) {
	r := &fakeRunner{fn: func(ctx context.Context, args []string) (Output, error) {
		_, rest := stripSerial(args)
		switch joined(rest) {
		case "shell echo 100%\necho %$?":
			return Output{Stdout: "100%\n%0\n"}, nil
		case "shell pm list packages\necho %$?":
			return Output{Stdout: "Error: could not access the Package Manager\n%1\r\n"}, nil
		case "shell true\necho %$?":
			return Output{Stdout: "garbage"}, nil
		}
		return Output{ExitCode: 1}, nil
	}}
	w := NewWrapper("adb", "ABC123", WithRunner(r))
	ctx := context.Background()

	res, err := w.Shell(ctx, "echo 100%")
	require.NoError(t, err)
	assert.Equal(t, "100%\n", res.Output)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, []string{"shell", "echo 100%"}, res.Command)

	res, err = w.Shell(ctx, "pm list packages")
	require.NotNil(t, res)
	assert.Equal(t, 1, res.ExitCode)
	assert.EqualError(t, err, "device ABC123: adb command 'shell pm list packages' failed with message: 'exit code 1'")

	_, err = w.Shell(ctx, "true")
	assert.Equal(t, device.KindOther, device.KindOf(err))
	assert.ErrorIs(t, err, device.ErrDevice)
}

func TestWrapper_GetState(t *testing.T) {
	state := "device\n"
	r := &fakeRunner{fn: func(ctx context.Context, args []string) (Output, error) {
		return Output{Stdout: state}, nil
	}}
	w := NewWrapper("adb", "ABC123", WithRunner(r))

	got, err := w.GetState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "device", got)

	state = "bootloader\n"
	got, err = w.GetState(context.Background())
	assert.Equal(t, "bootloader", got)
	assert.EqualError(t, err, "device ABC123: device is bootloader")
	assert.ErrorIs(t, err, device.ErrNotConnected)
}

func TestWrapper_SetPropQuotes(t *testing.T) {
	r := &fakeRunner{fn: func(ctx context.Context, args []string) (Output, error) {
		return Output{Stdout: "%0\n"}, nil
	}}
	w := NewWrapper("adb", "ABC123", WithRunner(r))

	require.NoError(t, w.SetProp(context.Background(), "persist.sys.locale", "it's on"))
	assert.Equal(t, []string{"-s", "ABC123", "shell", `setprop persist.sys.locale 'it'\''s on'` + "\necho %$?"}, r.lastCall())
}

func TestWrapper_Reboot(t *testing.T) {
	r := &fakeRunner{fn: func(ctx context.Context, args []string) (Output, error) {
		return Output{}, nil
	}}
	w := NewWrapper("adb", "ABC123", WithRunner(r))

	require.NoError(t, w.Reboot(context.Background(), device.RebootNormal))
	assert.Equal(t, []string{"-s", "ABC123", "reboot"}, r.lastCall())

	require.NoError(t, w.Reboot(context.Background(), device.RebootRecovery))
	assert.Equal(t, []string{"-s", "ABC123", "reboot", "recovery"}, r.lastCall())
}

func TestWithExitStatus(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    string
	}{
		{"plain", "ls /sdcard", "ls /sdcard\necho %$?"},
		{"trailing comment", "ls /sdcard # list", "ls /sdcard # list\necho %$?"},
		{"background job", "sleep 5 &", "sleep 5 &\necho %$?"},
		{"line continuation", "ls \\", "ls \\\n\necho %$?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithExitStatus(tt.command, shellStatusMarker))
		})
	}
}

func TestWrapper_ShellTrailingComment(t *testing.T) {
	r := &fakeRunner{fn: func(ctx context.Context, args []string) (Output, error) {
		_, rest := stripSerial(args)
		script := rest[1]
		// sh discards everything after # up to the end of the line
		var out strings.Builder
		for _, line := range strings.Split(script, "\n") {
			if line, _, _ = strings.Cut(line, "#"); strings.HasPrefix(line, "echo %") {
				out.WriteString("%0\n")
			}
		}
		return Output{Stdout: out.String()}, nil
	}}
	w := NewWrapper("adb", "ABC123", WithRunner(r))

	res, err := w.Shell(context.Background(), "ls /sdcard # list")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, []string{"shell", "ls /sdcard # list"}, res.Command)
}

func TestWrapper_WaitForDevice(t *testing.T) {
	r := &fakeRunner{fn: func(ctx context.Context, args []string) (Output, error) {
		return Output{}, nil
	}}
	w := NewWrapper("adb", "ABC123", WithRunner(r))

	require.NoError(t, w.WaitForDevice(context.Background()))
	assert.Equal(t, []string{"-s", "ABC123", "wait-for-device"}, r.lastCall())
}
