package device

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates a device was not found
	ErrNotFound = errors.New("device not found")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrNotConnected indicates the controller is not connected
	ErrNotConnected = errors.New("controller not connected")

	// ErrUnsupported indicates an operation is not supported by the device
	ErrUnsupported = errors.New("operation not supported")

	// ErrValidation indicates a state payload failed schema validation
	ErrValidation = errors.New("validation error")

	// ErrDevice is the root of the device/command error taxonomy.
	// errors.Is(err, ErrDevice) reports true for every variant below.
	ErrDevice = errors.New("device error")
)

// Kind discriminates the variants of the device/command error taxonomy.
type Kind int

const (
	// KindOther covers device-layer failures not classified further
	KindOther Kind = iota
	// KindCommandFailed means a command ran and reported failure
	KindCommandFailed
	// KindCommandTimeout means a command did not complete in time
	KindCommandTimeout
	// KindDeviceUnreachable means the device could not be contacted at all
	KindDeviceUnreachable
)

func (k Kind) String() string {
	switch k {
	case KindCommandFailed:
		return "command_failed"
	case KindCommandTimeout:
		return "command_timeout"
	case KindDeviceUnreachable:
		return "device_unreachable"
	default:
		return "other"
	}
}

// Error is satisfied by every variant of the taxonomy, so callers that do not
// care about the specific variant can handle them through one type.
type Error interface {
	error
	Kind() Kind
}

// BaseError is the catch-all variant.
type BaseError struct {
	message string
}

// NewBaseError returns a BaseError carrying message verbatim.
func NewBaseError(message string) *BaseError {
	return &BaseError{message: message}
}

func (e *BaseError) Error() string        { return e.message }
func (e *BaseError) Kind() Kind           { return KindOther }
func (e *BaseError) Is(target error) bool { return target == ErrDevice }

// CommandFailedError reports a device command that executed but returned a
// failure indication.
type CommandFailedError struct {
	cmd    []string
	msg    string
	device string
	text   string
}

// NewCommandFailedError builds the error for cmd failing with msg. device may
// be empty when the failure is not scoped to a device. Inputs are not
// validated: empty cmd and msg are accepted as-is.
func NewCommandFailedError(cmd []string, msg, device string) *CommandFailedError {
	var b strings.Builder
	if device != "" {
		fmt.Fprintf(&b, "device %s: ", device)
	}
	fmt.Fprintf(&b, "adb command '%s' failed with message: '%s'", strings.Join(cmd, " "), msg)

	return &CommandFailedError{
		cmd:    append([]string(nil), cmd...),
		msg:    msg,
		device: device,
		text:   b.String(),
	}
}

func (e *CommandFailedError) Error() string        { return e.text }
func (e *CommandFailedError) Kind() Kind           { return KindCommandFailed }
func (e *CommandFailedError) Is(target error) bool { return target == ErrDevice }

// Command returns a copy of the command tokens.
func (e *CommandFailedError) Command() []string {
	return append([]string(nil), e.cmd...)
}

// Message returns the failure detail without the formatted prefix.
func (e *CommandFailedError) Message() string { return e.msg }

// Device returns the device identifier, or "" when absent.
func (e *CommandFailedError) Device() string { return e.device }

// CommandTimeoutError reports a command that did not complete in time.
type CommandTimeoutError struct {
	message string
}

// NewCommandTimeoutError returns a CommandTimeoutError carrying message verbatim.
func NewCommandTimeoutError(message string) *CommandTimeoutError {
	return &CommandTimeoutError{message: message}
}

func (e *CommandTimeoutError) Error() string { return e.message }
func (e *CommandTimeoutError) Kind() Kind    { return KindCommandTimeout }

// Is also matches ErrTimeout so callers checking the generic sentinel keep working.
func (e *CommandTimeoutError) Is(target error) bool {
	return target == ErrDevice || target == ErrTimeout
}

// DeviceUnreachableError reports a device that could not be contacted.
type DeviceUnreachableError struct {
	message string
}

// NewDeviceUnreachableError returns a DeviceUnreachableError carrying message verbatim.
func NewDeviceUnreachableError(message string) *DeviceUnreachableError {
	return &DeviceUnreachableError{message: message}
}

func (e *DeviceUnreachableError) Error() string { return e.message }
func (e *DeviceUnreachableError) Kind() Kind    { return KindDeviceUnreachable }

// Is also matches ErrNotConnected.
func (e *DeviceUnreachableError) Is(target error) bool {
	return target == ErrDevice || target == ErrNotConnected
}

// AsError finds the first taxonomy error in err's chain.
func AsError(err error) (Error, bool) {
	var de Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf returns the kind of the first taxonomy error in err's chain, or
// KindOther when there is none.
func KindOf(err error) Kind {
	if de, ok := AsError(err); ok {
		return de.Kind()
	}
	return KindOther
}
