package player

import (
	"errors"
	"fmt"
)

// ErrPropertyUnavailable matches a ProtocolError whose mpv error is
// "property unavailable", i.e. nothing is loaded.
var ErrPropertyUnavailable = errors.New("property unavailable")

// TransportError reports a failure to connect to, write to or read from the socket.
// A TransportError while polling means the player process is gone.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ipc %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a response that is not valid JSON, carries an mpv
// error, or holds data of the wrong type.
type ProtocolError struct {
	// Message is mpv's error string, empty when the line could not be decoded.
	Message string
	Err     error
}

func (e *ProtocolError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("mpv error %q: %v", e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("mpv error %q", e.Message)
	default:
		return fmt.Sprintf("malformed ipc response: %v", e.Err)
	}
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrPropertyUnavailable && e.Message == ErrPropertyUnavailable.Error()
}

// CommandFailedError is returned by SendCommand once every attempt failed.
type CommandFailedError struct {
	Attempts int
	Err      error
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *CommandFailedError) Unwrap() error {
	return e.Err
}
