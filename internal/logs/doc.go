// Package logs reads daemon run logs for the CLI: the last lines of a file and,
// when following, every line appended afterwards.
package logs
