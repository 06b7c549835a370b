// Package daemonctl holds the client side of the daemon lifecycle: detaching a
// daemon child that inherits an already listening socket, sending one request
// to a running daemon, and the probes the status command relies on.
package daemonctl
