package device

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandFailedError_Message(t *testing.T) {
	cmd := []string{"shell", "pm", "list", "packages"}

	tests := []struct {
		name   string
		cmd    []string
		msg    string
		device string
		want   string
	}{
		{
			name:   "with device",
			cmd:    cmd,
			msg:    "exit code 1",
			device: "ABC123",
			want:   "device ABC123: adb command 'shell pm list packages' failed with message: 'exit code 1'",
		},
		{
			name: "without device",
			cmd:  cmd,
			msg:  "exit code 1",
			want: "adb command 'shell pm list packages' failed with message: 'exit code 1'",
		},
		{
			name: "empty command and message",
			want: "adb command '' failed with message: ''",
		},
		{
			name:   "single token with quotes in message",
			cmd:    []string{"reboot"},
			msg:    "error: 'closed'",
			device: "emulator-5554",
			want:   "device emulator-5554: adb command 'reboot' failed with message: 'error: 'closed''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCommandFailedError(tt.cmd, tt.msg, tt.device)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, tt.msg, err.Message())
			assert.Equal(t, tt.device, err.Device())
			assert.Equal(t, KindCommandFailed, err.Kind())
		})
	}
}

func TestCommandFailedError_Immutable(t *testing.T) {
	cmd := []string{"shell", "ls"}
	err := NewCommandFailedError(cmd, "exit code 2", "")

	cmd[1] = "rm"
	got := err.Command()
	assert.Equal(t, []string{"shell", "ls"}, got)

	got[0] = "push"
	assert.Equal(t, []string{"shell", "ls"}, err.Command())
	assert.Equal(t, "adb command 'shell ls' failed with message: 'exit code 2'", err.Error())
}

func TestThinVariants_PreserveMessage(t *testing.T) {
	timeout := NewCommandTimeoutError("timed out after 30s")
	assert.Equal(t, "timed out after 30s", timeout.Error())
	assert.Equal(t, KindCommandTimeout, timeout.Kind())

	unreachable := NewDeviceUnreachableError("no route to device")
	assert.Equal(t, "no route to device", unreachable.Error())
	assert.Equal(t, KindDeviceUnreachable, unreachable.Kind())

	base := NewBaseError("")
	assert.Equal(t, "", base.Error())
	assert.Equal(t, KindOther, base.Kind())
}

func TestVariants_MatchRoot(t *testing.T) {
	variants := []error{
		NewBaseError("boom"),
		NewCommandFailedError([]string{"shell", "true"}, "exit code 1", "ABC123"),
		NewCommandTimeoutError("timed out after 30s"),
		NewDeviceUnreachableError("no route to device"),
	}

	for _, err := range variants {
		t.Run(fmt.Sprintf("%T", err), func(t *testing.T) {
			assert.ErrorIs(t, err, ErrDevice)

			var de Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, err.Error(), de.Error())

			wrapped := fmt.Errorf("get state: %w", err)
			assert.ErrorIs(t, wrapped, ErrDevice)
			assert.Equal(t, de.Kind(), KindOf(wrapped))
		})
	}
}

func TestVariants_SentinelBridges(t *testing.T) {
	timeout := NewCommandTimeoutError("timed out")
	assert.ErrorIs(t, timeout, ErrTimeout)
	assert.NotErrorIs(t, timeout, ErrNotConnected)

	unreachable := NewDeviceUnreachableError("offline")
	assert.ErrorIs(t, unreachable, ErrNotConnected)
	assert.NotErrorIs(t, unreachable, ErrTimeout)

	failed := NewCommandFailedError([]string{"shell"}, "x", "")
	assert.NotErrorIs(t, failed, ErrTimeout)
	assert.NotErrorIs(t, failed, ErrNotConnected)

	assert.NotErrorIs(t, ErrNotFound, ErrDevice)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindOther, KindOf(nil))
	assert.Equal(t, KindOther, KindOf(errors.New("plain")))
	assert.Equal(t, KindCommandTimeout, KindOf(NewCommandTimeoutError("t")))

	_, ok := AsError(errors.New("plain"))
	assert.False(t, ok)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "other", KindOther.String())
	assert.Equal(t, "command_failed", KindCommandFailed.String())
	assert.Equal(t, "command_timeout", KindCommandTimeout.String())
	assert.Equal(t, "device_unreachable", KindDeviceUnreachable.String())
	assert.Equal(t, "other", Kind(42).String())
}
