// Package player drives an external mpv process over its JSON IPC socket.
package player

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/where"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitGracePeriod   = 3 * time.Second
	socketPrefix      = "mpv-"
	socketSuffix      = ".sock"
)

// Options configure how the player process is started.
type Options struct {
	Program string
	Args    []string
	// SocketDir defaults to where.Temp().
	SocketDir string
}

// Handle owns exactly one spawned player process and its socket path.
// The embedded Client is bound to that socket.
type Handle struct {
	*Client
	cmd    *exec.Cmd
	exited chan struct{}
}

// NewSocketPath returns a fresh, unused socket path inside dir.
func NewSocketPath(dir string) string {
	if dir == "" {
		dir = where.Temp()
	}
	return filepath.Join(dir, socketPrefix+uuid.NewString()+socketSuffix)
}

// Spawn starts the player on target and waits until its socket accepts connections.
func Spawn(ctx context.Context, opts Options, target string) (*Handle, error) {
	safe, err := sanitizeMediaTarget(target)
	if err != nil {
		return nil, fmt.Errorf("invalid media target: %w", err)
	}

	dir := opts.SocketDir
	if dir == "" {
		dir = where.Temp()
	}
	if err := CleanStale(dir); err != nil {
		log.Warnf("removing stale sockets: %v", err)
	}
	socket := NewSocketPath(dir)

	cmd := exec.Command(opts.Program, buildArgs(socket, opts.Args, safe)...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", opts.Program, err)
	}
	log.Infof("started %s (pid %d) on %s", opts.Program, cmd.Process.Pid, socket)

	h := &Handle{
		Client: NewClient(socket),
		cmd:    cmd,
		exited: make(chan struct{}),
	}

	go func() {
		_ = cmd.Wait()
		close(h.exited)
	}()

	if err := h.waitForSocket(ctx); err != nil {
		log.Warnf("killing %s: %v", opts.Program, err)
		return nil, multierror.Append(err, h.Close()).ErrorOrNil()
	}

	return h, nil
}

func buildArgs(socket string, extra []string, target string) []string {
	args := []string{
		"--hwdec=auto",
		"--quiet",
		"--idle=yes",
		"--force-window=yes",
		"--input-ipc-server=" + socket,
	}
	args = append(args, extra...)
	// "--" keeps a target that slipped past sanitizing from being read as a flag.
	return append(args, "--", target)
}

// Wait is closed once the process has exited.
func (h *Handle) Wait() <-chan struct{} {
	return h.exited
}

func (h *Handle) waitForSocket(ctx context.Context) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.exited:
			return errors.New("player exited before its socket was ready")
		case <-time.After(socketWaitDelay):
		}

		conn, err := net.Dial("unix", h.socketPath)
		if err == nil {
			_ = conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", h.socketPath, socketWaitRetries)
}

// Close quits the player, kills it if it does not exit within the grace
// period and removes the socket file.
func (h *Handle) Close() error {
	var result *multierror.Error

	select {
	case <-h.exited:
	default:
		ctx, cancel := context.WithTimeout(context.Background(), quitGracePeriod)
		_ = h.Quit(ctx)
		cancel()

		select {
		case <-h.exited:
		case <-time.After(quitGracePeriod):
			if err := killProcess(h.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
				result = multierror.Append(result, fmt.Errorf("kill player: %w", err))
			}
		}
	}

	if err := os.Remove(h.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		result = multierror.Append(result, fmt.Errorf("remove socket: %w", err))
	}

	return result.ErrorOrNil()
}

// CleanStale removes sockets in dir left behind by players that are no longer running.
func CleanStale(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, socketPrefix+"*"+socketSuffix))
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, path := range matches {
		conn, err := net.DialTimeout("unix", path, probeTimeout)
		if err == nil {
			_ = conn.Close()
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// sanitizeMediaTarget rejects targets that could be parsed as player flags
// or smuggle control characters into the IPC line.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", errors.New("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", errors.New("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", errors.New("url must not start with '-'")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "file":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}
