// Package logging assembles the structured slog loggers used by the dserver
// CLI and daemon.
//
// It owns the console and JSON handlers, output routing (stdout, stderr, log
// files), run-id stamping, fan-out between handlers, and log retention. The
// field constants keep attribute names consistent between the server loop and
// the runtime wiring; prefer them over ad-hoc keys.
package logging
