package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urmzd/droidhub/pkg/device"
)

const commandTimeLayout = "2006-01-02 15:04:05.000"

// CommandEntry is a row of the command log.
type CommandEntry struct {
	ID        int64         `json:"id"`
	RequestID string        `json:"request_id"`
	Device    string        `json:"device"`
	Command   []string      `json:"command"`
	Outcome   string        `json:"outcome"`
	Message   string        `json:"message,omitempty"`
	ExitCode  int           `json:"exit_code"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

// CommandLogStore records executed device commands. It implements
// device.CommandRecorder.
type CommandLogStore interface {
	Record(ctx context.Context, rec device.CommandRecord) error
	Recent(ctx context.Context, deviceID string, limit int) ([]*CommandEntry, error)
	CountByOutcome(ctx context.Context, deviceID string) (map[string]int, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// CommandLog returns the command log store for this database.
func (db *DB) CommandLog() CommandLogStore {
	return &commandLogStore{db: db}
}

type commandLogStore struct {
	db *DB
}

type requestIDKey struct{}

// WithRequestID tags commands recorded under ctx with id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id set by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *commandLogStore) Record(ctx context.Context, rec device.CommandRecord) error {
	cmd, err := json.Marshal(rec.Command)
	if err != nil {
		return fmt.Errorf("failed to encode command: %w", err)
	}

	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO command_log (request_id, device, command, outcome, message, exit_code, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, requestID, rec.Device, string(cmd), rec.Outcome, rec.Message, rec.ExitCode, rec.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}

// Recent returns the newest entries first. An empty deviceID matches all devices.
func (s *commandLogStore) Recent(ctx context.Context, deviceID string, limit int) ([]*CommandEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, device, command, outcome, message, exit_code, duration_ms, created_at
		FROM command_log
		WHERE ? = '' OR device = ?
		ORDER BY id DESC
		LIMIT ?
	`, deviceID, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []*CommandEntry
	for rows.Next() {
		e := &CommandEntry{}
		var cmd, createdAt string
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Device, &cmd, &e.Outcome, &e.Message,
			&e.ExitCode, &durationMS, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cmd), &e.Command); err != nil {
			return nil, fmt.Errorf("failed to decode command %d: %w", e.ID, err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.CreatedAt, _ = time.Parse(commandTimeLayout, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByOutcome tallies entries per outcome. An empty deviceID counts all devices.
func (s *commandLogStore) CountByOutcome(ctx context.Context, deviceID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*) FROM command_log
		WHERE ? = '' OR device = ?
		GROUP BY outcome
	`, deviceID, deviceID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// Prune deletes all but the newest keep entries and returns how many were removed.
func (s *commandLogStore) Prune(ctx context.Context, keep int) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM command_log
		WHERE id NOT IN (SELECT id FROM command_log ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune command log: %w", err)
	}
	return result.RowsAffected()
}
