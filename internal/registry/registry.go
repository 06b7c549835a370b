// Package registry tracks the peers accepted by the server loop together with
// the poll interest records handed to poll(2).
//
// Slot 0 of the interest set always belongs to the listening endpoint; peer i
// is paired with interest slot i+1. The registry is owned by the loop
// goroutine and performs no locking.
package registry

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"dserver/internal/channel"
)

// Peer is one accepted connection.
type Peer struct {
	ID       string
	Channel  *channel.Channel
	Accepted time.Time
}

// Registry keeps peers and interest records index-aligned.
type Registry struct {
	peers     []*Peer
	interests []unix.PollFd
}

// New creates a registry whose first interest slot watches listenFD for
// incoming connections.
func New(listenFD int) *Registry {
	return &Registry{
		interests: []unix.PollFd{{Fd: int32(listenFD), Events: unix.POLLIN}},
	}
}

// Len returns the number of registered peers.
func (r *Registry) Len() int { return len(r.peers) }

// Add registers ch with read interest and returns its entry.
func (r *Registry) Add(ch *channel.Channel) (*Peer, error) {
	if ch == nil || ch.FD() < 0 {
		return nil, errors.New("registry: channel is closed")
	}
	peer := &Peer{
		ID:       uuid.NewString(),
		Channel:  ch,
		Accepted: time.Now(),
	}
	r.peers = append(r.peers, peer)
	r.interests = append(r.interests, unix.PollFd{Fd: int32(ch.FD()), Events: unix.POLLIN})
	return peer, nil
}

// Lookup returns the position of the peer owning fd. The server resolves
// peers this way before removing them.
func (r *Registry) Lookup(fd int) (int, bool) {
	for i, peer := range r.peers {
		if peer.Channel.FD() == fd {
			return i, true
		}
	}
	return -1, false
}

// Peer returns the peer at position i.
func (r *Registry) Peer(i int) *Peer { return r.peers[i] }

// Revents returns the readiness reported for peer i by the last poll.
func (r *Registry) Revents(i int) int16 { return r.interests[i+1].Revents }

// ListenerRevents returns the readiness reported for the listening endpoint.
func (r *Registry) ListenerRevents() int16 { return r.interests[0].Revents }

// Interests returns the live interest set, listener first. poll(2) writes
// readiness into this slice, so callers must not retain it across mutations.
func (r *Registry) Interests() []unix.PollFd {
	for i := range r.interests {
		r.interests[i].Revents = 0
	}
	return r.interests
}

// RemoveAt unregisters peer i and returns it. Later peers shift down by one
// together with their readiness, so a scan can stay at position i.
// The caller owns releasing the returned channel.
func (r *Registry) RemoveAt(i int) *Peer {
	peer := r.peers[i]
	copy(r.peers[i:], r.peers[i+1:])
	r.peers[len(r.peers)-1] = nil
	r.peers = r.peers[:len(r.peers)-1]

	slot := i + 1
	copy(r.interests[slot:], r.interests[slot+1:])
	r.interests = r.interests[:len(r.interests)-1]
	return peer
}

// CloseAll releases every peer and empties the registry. The listener slot is
// left in place.
func (r *Registry) CloseAll() error {
	var errs []error
	for _, peer := range r.peers {
		if err := peer.Channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	clear(r.peers)
	r.peers = r.peers[:0]
	r.interests = r.interests[:1]
	return errors.Join(errs...)
}
