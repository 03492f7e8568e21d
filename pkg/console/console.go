package console

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/droidhub/pkg/adb"
	"github.com/urmzd/droidhub/pkg/device"
)

const (
	pollInterval   = 100 * time.Millisecond
	DefaultTimeout = 30 * time.Second
)

// Console runs shell commands over a UART shell.
type Console struct {
	path    string
	port    Port
	timeout time.Duration

	mu  sync.Mutex
	seq int
}

// New wraps an open port. path identifies the device in errors.
func New(path string, port Port, timeout time.Duration) *Console {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Console{path: path, port: port, timeout: timeout}
}

// Path returns the port path.
func (c *Console) Path() string {
	return c.path
}

// Shell runs command and waits for its exit status. On a non-zero status the
// result is returned together with a CommandFailedError.
func (c *Console) Shell(ctx context.Context, command string) (*device.CommandResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.seq++
	marker := fmt.Sprintf("__droidhub_%d__", c.seq)
	statusRe := regexp.MustCompile(regexp.QuoteMeta(marker) + `(\d+)\r?\n`)
	display := []string{"shell", command}
	start := time.Now()

	if err := c.port.ResetInputBuffer(); err != nil {
		return nil, c.unreachable("reset input", err)
	}
	if err := c.port.SetReadTimeout(pollInterval); err != nil {
		return nil, c.unreachable("set read timeout", err)
	}
	script := adb.WithExitStatus(command, marker)
	if _, err := c.port.Write([]byte(script + "\n")); err != nil {
		return nil, c.unreachable("write", err)
	}

	var buf bytes.Buffer
	chunk := make([]byte, 512)
	for {
		if m := statusRe.FindSubmatchIndex(buf.Bytes()); m != nil {
			status, _ := strconv.Atoi(string(buf.Bytes()[m[2]:m[3]]))
			res := &device.CommandResult{
				Device:   c.path,
				Command:  display,
				Output:   stripEcho(buf.String()[:m[0]], script, marker),
				ExitCode: status,
				Duration: time.Since(start),
			}
			log.Debug().Str("device", c.path).Str("cmd", command).Int("exit_code", status).Msg("console")
			if status != 0 {
				return res, device.NewCommandFailedError(display, fmt.Sprintf("exit code %d", status), c.path)
			}
			return res, nil
		}

		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, device.NewCommandTimeoutError(fmt.Sprintf("device %s: console command '%s' timed out after %s",
					c.path, command, c.timeout))
			}
			return nil, fmt.Errorf("console %s: %w", command, ctx.Err())
		default:
		}

		n, err := c.port.Read(chunk)
		if err != nil {
			return nil, c.unreachable("read", err)
		}
		buf.Write(chunk[:n])
	}
}

// Send writes command without waiting for it to finish; for commands such as
// reboot that take the shell down with them.
func (c *Console) Send(command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.port.Write([]byte(command + "\n")); err != nil {
		return c.unreachable("write", err)
	}
	return nil
}

// Close closes the port.
func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port.Close()
}

func (c *Console) unreachable(op string, err error) error {
	return device.NewDeviceUnreachableError(fmt.Sprintf("device %s: serial %s: %v", c.path, op, err))
}

// stripEcho drops the terminal's echo of the script lines, in order, and
// every line carrying marker.
func stripEcho(out, script, marker string) string {
	var echoed []string
	for _, l := range strings.Split(script, "\n") {
		if l != "" {
			echoed = append(echoed, l)
		}
	}

	out = strings.ReplaceAll(out, "\r\n", "\n")
	lines := strings.SplitAfter(out, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.Contains(l, marker) {
			continue
		}
		if len(echoed) > 0 && strings.HasSuffix(strings.TrimSuffix(l, "\n"), echoed[0]) {
			echoed = echoed[1:]
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "")
}
