package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNoActiveProfile = errors.New("no active profile found")

const (
	defaultCommandTimeout = 30 * time.Second
	defaultPollInterval   = 2 * time.Second
)

// Config is the runtime configuration loaded from the database.
type Config struct {
	Profile   *Profile
	APIServer *APIServer
}

// APIAddress returns the API server listen address.
func (c *Config) APIAddress() string {
	if c.APIServer == nil {
		return "0.0.0.0:8080"
	}
	return c.APIServer.Address()
}

// ADBPath returns the adb binary to run.
func (c *Config) ADBPath() string {
	if c.Profile == nil || c.Profile.ADBPath == "" {
		return "adb"
	}
	return c.Profile.ADBPath
}

// CommandTimeout bounds each device command.
func (c *Config) CommandTimeout() time.Duration {
	if c.Profile == nil || c.Profile.CommandTimeout <= 0 {
		return defaultCommandTimeout
	}
	return c.Profile.CommandTimeout
}

// PollInterval is how often the device list is refreshed. Zero disables polling.
func (c *Config) PollInterval() time.Duration {
	if c.Profile == nil || c.Profile.PollInterval < 0 {
		return defaultPollInterval
	}
	return c.Profile.PollInterval
}

// ActiveConfig loads the configuration of the active profile.
func (db *DB) ActiveConfig(ctx context.Context) (*Config, error) {
	profile, err := db.Profiles().GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}

	apiServer, err := db.APIServers().Get(ctx, profile.ID)
	if err != nil && !errors.Is(err, ErrAPIServerNotFound) {
		return nil, fmt.Errorf("failed to get API server config: %w", err)
	}

	return &Config{Profile: profile, APIServer: apiServer}, nil
}
