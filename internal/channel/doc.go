// Package channel wraps a Unix stream socket bound in the Linux abstract
// namespace and exposes the handful of blocking operations the daemon and its
// clients need: bind, listen, accept, connect, receive, send, and shutdown.
//
// A Channel owns exactly one descriptor and releases it once, on Close. Reads
// are bounded by the channel's buffer size: a single Receive yields at most
// size-1 bytes and stops at the first NUL, so oversized input is truncated at
// the boundary rather than reassembled. Writes loop until the whole message is
// on the wire.
//
// Errors returned by this package are *OpError values that match one of the
// kind sentinels (ErrInvalidAddress, ErrAddressInUse, ErrConnectionRefused,
// ErrSystem) as well as the underlying errno through errors.Is.
package channel
