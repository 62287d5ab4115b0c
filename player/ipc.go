package player

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/yato-cli/yato/log"
)

type ipcCommand struct {
	Command []any `json:"command"`
}

type ipcResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Event string          `json:"event"`
}

const (
	commandAttempts = 3
	commandDelay    = 100 * time.Millisecond
	requestTimeout  = time.Second
	probeTimeout    = 100 * time.Millisecond
	maxLineSize     = 1 << 20
)

// Client talks to one mpv instance over its JSON IPC socket.
//
// There is no persistent connection: every operation dials the socket, writes
// one request line and, unless it is fire-and-forget, reads one response line.
// Operations issued through the same Client are serialized.
type Client struct {
	socketPath string
	mu         sync.Mutex
}

// NewClient returns a Client for the socket at path. It does not dial.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Socket is the socket path the client dials.
func (c *Client) Socket() string {
	return c.socketPath
}

// GetProperty reads a numeric property.
func (c *Client) GetProperty(ctx context.Context, name string) (float64, error) {
	data, err := c.request(ctx, requestTimeout, "get_property", name)
	if err != nil {
		return 0, err
	}
	return decodeFloat(name, data)
}

// SetProperty writes a property without waiting for mpv's reply.
func (c *Client) SetProperty(ctx context.Context, name string, value any) error {
	return c.send(ctx, "set_property", name, value)
}

// SeekAbsolute jumps to seconds without waiting for mpv's reply.
func (c *Client) SeekAbsolute(ctx context.Context, seconds float64) error {
	return c.send(ctx, "seek", seconds, "absolute")
}

// SendCommand issues an arbitrary command, retrying transport and protocol
// failures up to three attempts with a fixed 100ms delay in between.
func (c *Client) SendCommand(ctx context.Context, args ...any) (json.RawMessage, error) {
	var attempts int

	data, err := retry.DoWithData(
		func() (json.RawMessage, error) {
			attempts++
			return c.request(ctx, requestTimeout, args...)
		},
		retry.Context(ctx),
		retry.Attempts(commandAttempts),
		retry.Delay(commandDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debugf("ipc command %v attempt %d failed: %v", args, n+1, err)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &CommandFailedError{Attempts: attempts, Err: err}
	}

	return data, nil
}

// HasActivePlayback reports whether a file is loaded. "property unavailable"
// yields false; a transport failure yields an error because the player is gone.
func (c *Client) HasActivePlayback(ctx context.Context) (bool, error) {
	_, err := c.request(ctx, requestTimeout, "get_property", "time-pos")
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrPropertyUnavailable):
		return false, nil
	default:
		return false, err
	}
}

// IsAlive reports whether the player answers on its socket at all.
func (c *Client) IsAlive(ctx context.Context) (bool, error) {
	_, err := c.request(ctx, requestTimeout, "get_property", "pid")
	if err != nil {
		var transport *TransportError
		if errors.As(err, &transport) {
			return false, err
		}
	}
	return true, nil
}

// IsIdle is advisory: any failure, including the 100ms timeout, reads as false.
func (c *Client) IsIdle(ctx context.Context) bool {
	return c.probeBool(ctx, "idle-active")
}

// IsEOF is advisory: any failure, including the 100ms timeout, reads as false.
func (c *Client) IsEOF(ctx context.Context) bool {
	return c.probeBool(ctx, "eof-reached")
}

// GetPausedStatus reads the pause flag.
func (c *Client) GetPausedStatus(ctx context.Context) (bool, error) {
	data, err := c.request(ctx, requestTimeout, "get_property", "pause")
	if err != nil {
		return false, err
	}
	return decodeBool("pause", data)
}

// LoadFile replaces the current file with target.
func (c *Client) LoadFile(ctx context.Context, target string) error {
	safe, err := sanitizeMediaTarget(target)
	if err != nil {
		return err
	}
	_, err = c.SendCommand(ctx, "loadfile", safe, "replace")
	return err
}

// Quit asks the player to exit.
func (c *Client) Quit(ctx context.Context) error {
	_, err := c.SendCommand(ctx, "quit")
	return err
}

func (c *Client) probeBool(ctx context.Context, name string) bool {
	data, err := c.request(ctx, probeTimeout, "get_property", name)
	if err != nil {
		return false
	}
	value, err := decodeBool(name, data)
	return err == nil && value
}

func (c *Client) dial(ctx context.Context, timeout time.Duration) (net.Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, &TransportError{Op: "connect", Err: err}
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return nil, &TransportError{Op: "connect", Err: err}
	}

	return conn, nil
}

func (c *Client) write(conn net.Conn, args []any) error {
	payload, err := json.Marshal(ipcCommand{Command: args})
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

func (c *Client) send(ctx context.Context, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.dial(ctx, requestTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	return c.write(conn, args)
}

// request performs exactly one round trip: one request line out, one response line in.
// Event lines mpv broadcasts to every client are skipped.
func (c *Client) request(ctx context.Context, timeout time.Duration, args ...any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.dial(ctx, timeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := c.write(conn, args); err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), maxLineSize)
	for {
		if !scanner.Scan() {
			err := scanner.Err()
			if errors.Is(err, bufio.ErrTooLong) {
				return nil, &ProtocolError{Err: fmt.Errorf("response exceeds %d bytes", maxLineSize)}
			}
			if err == nil {
				err = io.EOF
			}
			return nil, &TransportError{Op: "read", Err: err}
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var resp ipcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, &ProtocolError{Err: err}
		}

		if resp.Event != "" {
			continue
		}

		switch resp.Error {
		case "success":
		case "":
			return nil, &ProtocolError{Err: errors.New("response carries no error field")}
		default:
			return nil, &ProtocolError{Message: resp.Error}
		}

		return resp.Data, nil
	}
}

func decodeFloat(name string, data json.RawMessage) (float64, error) {
	var value *float64
	if err := json.Unmarshal(data, &value); err != nil || value == nil {
		return 0, &ProtocolError{Err: fmt.Errorf("property %s: expected a number, got %s", name, string(data))}
	}
	return *value, nil
}

func decodeBool(name string, data json.RawMessage) (bool, error) {
	var value *bool
	if err := json.Unmarshal(data, &value); err != nil || value == nil {
		return false, &ProtocolError{Err: fmt.Errorf("property %s: expected a bool, got %s", name, string(data))}
	}
	return *value, nil
}
