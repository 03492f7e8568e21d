package db

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Bootstrap creates the default profile and API server on first run.
func (db *DB) Bootstrap(ctx context.Context) error {
	needed, err := db.NeedsBootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to check profiles: %w", err)
	}
	if !needed {
		return nil
	}

	profile := &Profile{
		Name:           "default",
		ADBPath:        DetectADBPath(),
		CommandTimeout: defaultCommandTimeout,
		PollInterval:   defaultPollInterval,
		IsActive:       true,
	}
	if err := db.Profiles().Create(ctx, profile); err != nil {
		return fmt.Errorf("failed to create default profile: %w", err)
	}

	if err := db.APIServers().Create(ctx, &APIServer{ProfileID: profile.ID, Host: "0.0.0.0", Port: 8080}); err != nil {
		return fmt.Errorf("failed to create default API server: %w", err)
	}
	return nil
}

// NeedsBootstrap reports whether no profile exists yet.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// DetectADBPath looks for adb in the Android SDK directories named by
// ANDROID_HOME and ANDROID_SDK_ROOT, then on PATH, and falls back to "adb".
func DetectADBPath() string {
	name := "adb"
	if runtime.GOOS == "windows" {
		name = "adb.exe"
	}

	for _, env := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		root := os.Getenv(env)
		if root == "" {
			continue
		}
		candidate := filepath.Join(root, "platform-tools", name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}

	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	return "adb"
}
