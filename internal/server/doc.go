// Package server runs the dserver event loop.
//
// A Server owns one listening channel and a registry of accepted peers. Serve
// polls them on a single goroutine: a readable listener admits exactly one
// peer per pass and skips the peer scan, otherwise every ready peer is read
// once and answered through protocol.Respond. Hang-ups and per-peer failures
// drop only the affected peer. A STOP request, a cancelled context, or a fatal
// poll/listener error ends the loop and releases every channel.
package server
