package console

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"

	"github.com/urmzd/droidhub/pkg/device"
)

// DefaultBaudRate is the usual rate of Android UART debug consoles.
const DefaultBaudRate = 115200

// Port is the part of serial.Port the console uses.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// OpenSerial opens the console port at baud, 8N1. A port that cannot be
// opened is reported as an unreachable device.
func OpenSerial(path string, baud int) (Port, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, device.NewDeviceUnreachableError(fmt.Sprintf("device %s: open serial port: %v", path, err))
	}

	log.Info().Str("port", path).Int("baud", baud).Msg("Serial console opened")
	return port, nil
}
