package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogsPrintsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	target := filepath.Join(env.cfg.Paths.LogDir, "dserver-run.log")
	if err := os.WriteFile(target, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	if err := os.Symlink(target, env.cfg.CurrentLogPath()); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if got := strings.TrimSpace(out); got != "two\nthree" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestLogsWithoutRunLogPrintsNothing(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "" {
		t.Fatalf("expected no output, got %q", out)
	}
}

func TestLogsRejectsNegativeLines(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"logs", "--lines", "-1"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--lines") {
		t.Fatalf("expected --lines error, got %v", err)
	}
}
