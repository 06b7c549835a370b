// Package daemonrun is the daemon process runtime: it sets up run logging,
// guards the per-socket pid file with a lock, and serves an already listening
// channel until STOP or a termination signal.
package daemonrun
