package daemonctl

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"dserver/internal/channel"
)

// ListenFD is the descriptor number the daemon child finds its listener on.
const ListenFD = 3

// LaunchOptions controls the arguments handed to the daemon child.
type LaunchOptions struct {
	ConfigPath string
	SocketName string
	LogLevel   string
}

// Detach starts executable as a daemon child in its own session with the
// working directory at / and stdio on /dev/null. The listener is duplicated
// onto ListenFD in the child, so the caller keeps (and should close) its own
// copy. It returns the child's pid.
func Detach(executablePath string, listener *channel.Channel, opts LaunchOptions) (int, error) {
	if strings.TrimSpace(executablePath) == "" {
		return 0, fmt.Errorf("resolve executable: executable path is empty")
	}
	if listener == nil {
		return 0, fmt.Errorf("detach: listener is required")
	}

	args, err := childArgs(opts)
	if err != nil {
		return 0, err
	}

	inherited, err := listener.File()
	if err != nil {
		return 0, fmt.Errorf("share listener: %w", err)
	}
	defer inherited.Close()

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	proc := exec.Command(executablePath, args...)
	proc.Dir = "/"
	proc.Stdin = devNull
	proc.Stdout = devNull
	proc.Stderr = devNull
	proc.ExtraFiles = []*os.File{inherited}
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := proc.Start(); err != nil {
		return 0, fmt.Errorf("launch daemon: %w", err)
	}
	pid := proc.Process.Pid
	if err := proc.Process.Release(); err != nil {
		return pid, fmt.Errorf("release daemon process: %w", err)
	}
	return pid, nil
}

func childArgs(opts LaunchOptions) ([]string, error) {
	args := []string{"daemon", "--listen-fd", strconv.Itoa(ListenFD)}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		// The child runs from /, so relative paths would resolve differently.
		abs, err := filepath.Abs(cfg)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		args = append(args, "--config", abs)
	}
	if socket := strings.TrimSpace(opts.SocketName); socket != "" {
		args = append(args, "--socket", socket)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}
	return args, nil
}
