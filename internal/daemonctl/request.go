package daemonctl

import (
	"errors"
	"fmt"

	"dserver/internal/channel"
	"dserver/internal/protocol"
)

// ErrDaemonNotRunning indicates nothing listens on the requested socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

// ErrEmptyMessage rejects requests that would never be answered: an empty
// write sends nothing, so the daemon would never see a message.
var ErrEmptyMessage = errors.New("message is empty")

// Request connects to the daemon at name, sends msg, and returns the reply.
// bufSize is the daemon's receive capacity; the client reads with enough room
// for the reply prefix on top of a full payload.
func Request(name, msg string, bufSize int) (string, error) {
	if msg == "" {
		return "", ErrEmptyMessage
	}
	if bufSize <= 0 {
		bufSize = channel.DefaultBufferSize
	}
	client, err := channel.New(channel.WithBufferSize(bufSize + len(protocol.ReplyPrefix)))
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.Connect(name); err != nil {
		if errors.Is(err, channel.ErrConnectionRefused) {
			return "", fmt.Errorf("%w: %w", ErrDaemonNotRunning, err)
		}
		return "", err
	}
	if err := client.Send(msg); err != nil {
		return "", err
	}
	reply, err := client.Receive()
	if err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}
	return reply, nil
}

// Probe reports whether a daemon accepts connections at name. The probe
// connection is closed without sending anything.
func Probe(name string) (bool, error) {
	client, err := channel.New()
	if err != nil {
		return false, err
	}
	defer client.Close()
	if err := client.Connect(name); err != nil {
		if errors.Is(err, channel.ErrConnectionRefused) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
