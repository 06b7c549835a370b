package main

import (
	"errors"
	"testing"
	"time"

	"dserver/internal/daemonctl"
	"dserver/internal/server"
	"dserver/internal/testsupport"
)

func TestNoArgumentsPrintsHelp(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("dserver: %v", err)
	}
	requireContains(t, out, "-d, --demonize")
	requireContains(t, out, "-c, --connect MSG")
	requireContains(t, out, "-h, --help")
}

func TestUnknownOptionSuggestsHelp(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"--bogus"}, env.configPath)
	if err == nil {
		t.Fatal("expected unknown option to fail")
	}
	requireContains(t, err.Error(), "dserver: unknown flag: --bogus")
	requireContains(t, err.Error(), "Try 'dserver --help' for more information")
}

func TestDemonizeAndConnectAreExclusive(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"-d", "-c", "hello"}, env.configPath); err == nil {
		t.Fatal("expected -d with -c to fail")
	}
}

func TestForegroundRequiresDemonize(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"--foreground"}, env.configPath)
	if err == nil {
		t.Fatal("expected --foreground alone to fail")
	}
	requireContains(t, err.Error(), "--foreground requires --demonize")
}

func TestConnectPrintsReply(t *testing.T) {
	env := setupCLITestEnv(t)
	done := env.serveInProcess(t)

	out, _, err := runCLI(t, []string{"-c", "hello"}, env.configPath)
	if err != nil {
		t.Fatalf("-c hello: %v", err)
	}
	if out != "DServer: hello\n" {
		t.Fatalf("unexpected output %q", out)
	}

	out, _, err = runCLI(t, []string{"--connect=STOP"}, env.configPath)
	if err != nil {
		t.Fatalf("--connect=STOP: %v", err)
	}
	if out != "DServer stopped\n" {
		t.Fatalf("unexpected output %q", out)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server kept running after STOP")
	}
}

func TestConnectWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"-c", "hello"}, env.configPath)
	if err == nil {
		t.Fatal("expected connect to fail without a daemon")
	}
	requireContains(t, err.Error(), "nothing is listening on "+env.cfg.Server.SocketName)
}

func TestConnectRejectsEmptyMessage(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"-c", ""}, env.configPath)
	if !errors.Is(err, daemonctl.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestSocketFlagOverridesConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	other := testsupport.UniqueSocketName()
	ln, err := server.Bind(other, 10)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	env.serveWith(t, ln)

	out, _, err := runCLI(t, []string{"--socket", other, "-c", "override"}, env.configPath)
	if err != nil {
		t.Fatalf("-c with --socket: %v", err)
	}
	if out != "DServer: override\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestDemonizeForegroundServesUntilStop(t *testing.T) {
	env := setupCLITestEnv(t)
	socket := env.cfg.Server.SocketName

	result := make(chan error, 1)
	go func() {
		_, _, err := runCLI(t, []string{"-d", "--foreground", "--log-level", "error"}, env.configPath)
		result <- err
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if up, _ := daemonctl.Probe(socket); up {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("foreground daemon never listened")
		}
		time.Sleep(10 * time.Millisecond)
	}

	reply, err := daemonctl.Request(socket, "STOP", env.cfg.Server.BufferSize)
	if err != nil || reply != "DServer stopped" {
		t.Fatalf("stop reply %q, err %v", reply, err)
	}
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("dserver -d --foreground: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("foreground daemon did not exit after STOP")
	}
}

func TestDemonizeReportsAddressInUse(t *testing.T) {
	env := setupCLITestEnv(t)
	env.serveInProcess(t)

	_, _, err := runCLI(t, []string{"-d"}, env.configPath)
	if err == nil {
		t.Fatal("expected -d to fail while the socket is taken")
	}
	requireContains(t, err.Error(), "already in use")
}
