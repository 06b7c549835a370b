package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"dserver/internal/channel"
	"dserver/internal/logging"
	"dserver/internal/protocol"
	"dserver/internal/registry"
)

// DefaultPollTimeout bounds each wait for readiness.
const DefaultPollTimeout = time.Millisecond

const hangupEvents = unix.POLLHUP | unix.POLLERR | unix.POLLNVAL

// ErrListenerFailed reports that the listening endpoint can no longer accept.
var ErrListenerFailed = errors.New("server: listener failed")

// Options tunes the event loop.
type Options struct {
	// PollTimeout is how long one poll waits for readiness. Values below one
	// millisecond use DefaultPollTimeout.
	PollTimeout time.Duration
}

// Server multiplexes peers over one listening channel.
type Server struct {
	listener  *channel.Channel
	peers     *registry.Registry
	logger    *slog.Logger
	timeoutMS int
	closed    bool
}

type loopState int

const (
	stateRunning loopState = iota
	stateStopping
)

// Bind creates the listening endpoint: a fresh channel bound to name and
// listening with the given backlog. The channel is released on failure.
func Bind(name string, backlog int, opts ...channel.Option) (*channel.Channel, error) {
	ln, err := channel.New(opts...)
	if err != nil {
		return nil, err
	}
	if err := ln.Bind(name); err != nil {
		_ = ln.Close()
		return nil, err
	}
	if err := ln.Listen(backlog); err != nil {
		_ = ln.Close()
		return nil, err
	}
	return ln, nil
}

// New wraps a listening channel. The server takes ownership of listener and
// releases it when Serve returns or Close is called.
func New(listener *channel.Channel, opts Options, logger *slog.Logger) (*Server, error) {
	if listener == nil {
		return nil, errors.New("server: listener is required")
	}
	listening, err := listener.Listening()
	if err != nil {
		return nil, fmt.Errorf("server: inspect listener: %w", err)
	}
	if !listening {
		return nil, fmt.Errorf("server: %s is not listening", listener.Addr())
	}

	timeout := opts.PollTimeout
	if timeout < time.Millisecond {
		timeout = DefaultPollTimeout
	}

	return &Server{
		listener:  listener,
		peers:     registry.New(listener.FD()),
		logger:    logging.NewComponentLogger(logger, "server").With(logging.Socket(listener.Addr())),
		timeoutMS: int(timeout / time.Millisecond),
	}, nil
}

// Addr returns the logical name the server listens on.
func (s *Server) Addr() string { return s.listener.Addr() }

// Peers returns the number of connected peers.
func (s *Server) Peers() int { return s.peers.Len() }

// Serve runs the loop until a STOP request is answered or ctx is cancelled,
// then releases every channel. Only poll failures and listener failures are
// returned.
func (s *Server) Serve(ctx context.Context) error {
	if s.closed {
		return channel.ErrClosed
	}
	defer s.Close()

	s.logger.Info("server listening", logging.Event("server_listening"))

	state := stateRunning
	for state == stateRunning {
		if err := ctx.Err(); err != nil {
			s.logger.Info("server stopping on cancellation",
				logging.Event("server_cancelled"),
				logging.Error(context.Cause(ctx)),
			)
			return nil
		}
		next, err := s.step()
		if err != nil {
			logging.ErrorWithContext(s.logger, "server loop failed", "server_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "restart the daemon; check descriptor limits"),
			)
			return err
		}
		state = next
	}

	s.logger.Info("server stopped",
		logging.Event("server_stopped"),
		logging.Int("peers", s.peers.Len()),
	)
	return nil
}

// step performs one poll and dispatches whatever became ready.
func (s *Server) step() (loopState, error) {
	interests := s.peers.Interests()
	n, err := unix.Poll(interests, s.timeoutMS)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return stateRunning, nil
		}
		return stateStopping, fmt.Errorf("poll: %w", err)
	}
	if n == 0 {
		return stateRunning, nil
	}

	if rev := s.peers.ListenerRevents(); rev != 0 {
		if rev&hangupEvents != 0 {
			return stateStopping, fmt.Errorf("%w: revents %#x", ErrListenerFailed, rev)
		}
		if rev&unix.POLLIN != 0 {
			if err := s.admit(); err != nil {
				return stateStopping, err
			}
			return stateRunning, nil
		}
	}

	return s.scan(), nil
}

func (s *Server) admit() error {
	ch, err := s.listener.Accept()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	peer, err := s.peers.Add(ch)
	if err != nil {
		_ = ch.Close()
		return err
	}
	s.logger.Debug("peer accepted",
		logging.Event("peer_accepted"),
		logging.PeerID(peer.ID),
		logging.Int("peers", s.peers.Len()),
	)
	return nil
}

// scan visits every peer once. Removed peers shift the rest down, so the
// position only advances past peers that stay.
func (s *Server) scan() loopState {
	state := stateRunning
	for i := 0; i < s.peers.Len(); {
		rev := s.peers.Revents(i)
		switch {
		case rev&hangupEvents != 0:
			s.drop(s.peers.Peer(i).Channel.FD(), nil)
			continue
		case rev&unix.POLLIN != 0:
			peer := s.peers.Peer(i)
			stop, err := s.handle(peer)
			if err != nil {
				s.drop(peer.Channel.FD(), err)
				continue
			}
			if stop {
				state = stateStopping
			}
		}
		i++
	}
	return state
}

// handle reads one message from peer and sends the reply.
func (s *Server) handle(peer *registry.Peer) (bool, error) {
	msg, err := peer.Channel.Receive()
	if err != nil {
		return false, err
	}
	reply := protocol.Respond(msg)
	if err := peer.Channel.Send(reply.Text); err != nil {
		return false, err
	}
	s.logger.Debug("request answered",
		logging.Event("request_answered"),
		logging.PeerID(peer.ID),
		logging.Int("bytes", len(msg)),
		logging.Bool("stop", reply.Stop),
	)
	if reply.Stop {
		s.logger.Info("stop requested",
			logging.Event("stop_requested"),
			logging.PeerID(peer.ID),
		)
	}
	return reply.Stop, nil
}

// drop unregisters and releases the peer owning fd.
func (s *Server) drop(fd int, cause error) {
	i, ok := s.peers.Lookup(fd)
	if !ok {
		return
	}
	peer := s.peers.RemoveAt(i)
	_ = peer.Channel.Shutdown()
	closeErr := peer.Channel.Close()

	attrs := []logging.Attr{
		logging.PeerID(peer.ID),
		logging.Duration("connected", time.Since(peer.Accepted)),
		logging.Int("peers", s.peers.Len()),
	}
	switch {
	case cause == nil || errors.Is(cause, io.EOF):
		s.logger.Debug("peer disconnected", logging.Args(append(attrs,
			logging.Event("peer_disconnected"))...)...)
	default:
		logging.WarnWithContext(s.logger, "peer dropped after i/o failure", "peer_dropped",
			append(attrs,
				logging.Error(errors.Join(cause, closeErr)),
				logging.String(logging.FieldErrorHint, "client disconnected mid-request or sent to a closed socket"),
				logging.String(logging.FieldImpact, "only this client is disconnected"),
			)...,
		)
	}
}

// Close releases every peer and the listener. Subsequent calls are no-ops.
func (s *Server) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.peers.CloseAll(), s.listener.Close())
}
