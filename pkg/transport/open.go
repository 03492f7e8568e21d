// Package transport picks the device transport a command starts with.
package transport

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/droidhub/pkg/adb"
	"github.com/urmzd/droidhub/pkg/console"
	"github.com/urmzd/droidhub/pkg/device"
)

var openSerial = console.OpenSerial

// Options selects and configures the transport.
type Options struct {
	ADBPath        string
	ConsolePath    string // when set, a serial console is used instead of adb
	BaudRate       int
	CommandTimeout time.Duration
	PollInterval   time.Duration
	Runner         adb.Runner
	Recorder       device.CommandRecorder
}

// Open starts the configured transport. When it cannot be started the
// null controller is returned so the surfaces still come up in limited mode.
func Open(ctx context.Context, opts Options) (device.Controller, device.EventSubscriber) {
	if opts.ConsolePath != "" {
		port, err := openSerial(opts.ConsolePath, opts.BaudRate)
		if err != nil {
			log.Warn().Err(err).Str("port", opts.ConsolePath).Msg("Serial console unavailable, using null controller")
			return device.NewNullController(), device.NewNullEventSubscriber()
		}
		c := console.NewController(console.New(opts.ConsolePath, port, opts.CommandTimeout), opts.Recorder)
		return c, device.NewNullEventSubscriber()
	}

	c, err := adb.NewController(ctx, adb.Config{
		Path:         opts.ADBPath,
		Timeout:      opts.CommandTimeout,
		PollInterval: opts.PollInterval,
		Runner:       opts.Runner,
		Recorder:     opts.Recorder,
	})
	if err != nil {
		log.Warn().Err(err).Str("adb", opts.ADBPath).Str("kind", device.KindOf(err).String()).
			Msg("adb controller unavailable, using null controller")
		return device.NewNullController(), device.NewNullEventSubscriber()
	}
	return c, c
}
