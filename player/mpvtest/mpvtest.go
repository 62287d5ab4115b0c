// Package mpvtest provides a fake mpv JSON IPC server for tests.
package mpvtest

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sync"
)

// Handler answers one decoded command. Returning ok=false closes the
// connection without a reply.
type Handler func(command []any) (reply string, ok bool)

// Server listens on a unix socket in a private temp directory.
type Server struct {
	// Path is the socket path clients dial.
	Path string

	ln       net.Listener
	dir      string
	handler  Handler
	mu       sync.Mutex
	commands [][]any
	wg       sync.WaitGroup
}

// NewServer starts serving handler.
func NewServer(handler Handler) (*Server, error) {
	dir, err := os.MkdirTemp("", "mpvtest")
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "mpv.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	s := &Server{Path: path, ln: ln, dir: dir, handler: handler}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var req struct {
			Command []any `json:"command"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			return
		}

		s.mu.Lock()
		s.commands = append(s.commands, req.Command)
		handler := s.handler
		s.mu.Unlock()

		reply, ok := handler(req.Command)
		if !ok {
			return
		}
		if _, err := conn.Write([]byte(reply + "\n")); err != nil {
			return
		}
	}
}

// SetHandler swaps the handler for subsequent commands.
func (s *Server) SetHandler(handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

// Commands returns every command received so far, in arrival order.
func (s *Server) Commands() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.commands...)
}

// Close stops the listener and removes the socket directory.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.wg.Wait()
	_ = os.RemoveAll(s.dir)
	return err
}

// Reply encodes a successful response carrying data.
func Reply(data any) string {
	b, _ := json.Marshal(map[string]any{"data": data, "error": "success"})
	return string(b)
}

// Fail encodes an mpv error response.
func Fail(message string) string {
	b, _ := json.Marshal(map[string]any{"data": nil, "error": message})
	return string(b)
}

// Properties answers get_property from props and "property unavailable" for
// anything missing; set_property stores into props; every other command succeeds.
func Properties(props map[string]any) Handler {
	var mu sync.Mutex
	return func(command []any) (string, bool) {
		mu.Lock()
		defer mu.Unlock()

		if len(command) == 0 {
			return Fail("invalid parameter"), true
		}

		switch command[0] {
		case "get_property":
			if len(command) < 2 {
				return Fail("invalid parameter"), true
			}
			name, _ := command[1].(string)
			value, ok := props[name]
			if !ok {
				return Fail("property unavailable"), true
			}
			return Reply(value), true
		case "set_property":
			if len(command) < 3 {
				return Fail("invalid parameter"), true
			}
			name, _ := command[1].(string)
			props[name] = command[2]
			return Reply(nil), true
		default:
			return Reply(nil), true
		}
	}
}
