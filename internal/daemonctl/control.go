// Package daemonctl starts and stops the daemon process on behalf of
// the CLI: it launches the detached daemon subprocess, waits for its
// control socket to come up, and tears the process down when a stop
// request alone is not enough.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"shortpipe/internal/config"
	"shortpipe/internal/ipc"
)

// ErrDaemonNotRunning reports that no daemon answers on the socket.
var ErrDaemonNotRunning = errors.New("daemon is not running")

// LaunchOptions carries the flags forwarded to the daemon subprocess.
type LaunchOptions struct {
	SocketPath string
	ConfigPath string
}

// StartResult reports how EnsureStarted resolved.
type StartResult struct {
	Launched       bool
	AlreadyRunning bool
	PID            int
}

// StopResult reports how StopAndTerminate resolved.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// Launch spawns the daemon subprocess detached from the CLI's terminal.
func Launch(executablePath string, opts LaunchOptions) error {
	args := []string{"daemon"}
	if opts.SocketPath != "" {
		args = append(args, "--socket", opts.SocketPath)
	}
	if opts.ConfigPath != "" {
		args = append(args, "--config", opts.ConfigPath)
	}

	cmd := exec.Command(executablePath, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	// Reparent to init; the daemon owns its own lifecycle from here.
	return cmd.Process.Release()
}

// WaitForClient polls the socket until the daemon answers or the
// timeout elapses.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	for {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("daemon did not answer on %s within %s", socketPath, timeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// EnsureStarted connects to a running daemon or launches one.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	if client, err := ipc.Dial(socketPath); err == nil {
		defer client.Close()
		result := StartResult{AlreadyRunning: true}
		if status, err := client.Status(); err == nil {
			result.PID = status.PID
		}
		return result, nil
	}

	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}

	client, err := WaitForClient(socketPath, waitTimeout)
	if err != nil {
		return StartResult{Launched: true}, err
	}
	defer client.Close()

	result := StartResult{Launched: true}
	if status, err := client.Status(); err == nil {
		result.PID = status.PID
	}
	return result, nil
}

// StopAndTerminate asks the daemon to stop and falls back to signalling
// the recorded pid when the process outlives the grace period.
func StopAndTerminate(socketPath string, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		return StopResult{}, ErrDaemonNotRunning
	}

	var result StopResult
	if status, err := client.Status(); err == nil {
		result.PID = status.PID
	}
	if _, err := client.Stop(); err == nil {
		result.StopAcknowledged = true
	}
	client.Close()

	if waitForSocketGone(socketPath, gracePeriod) {
		return result, nil
	}

	pid := result.PID
	if pid <= 0 && cfg != nil {
		pid = readPIDFile(pidFilePath(cfg))
	}
	if pid > 0 {
		if err := terminateProcess(pid, gracePeriod); err != nil {
			return result, fmt.Errorf("terminate daemon pid %d: %w", pid, err)
		}
		result.ForcedKill = true
		result.PID = pid
	}
	return result, nil
}

// ProcessInfo reports whether a daemon answers on the socket and its pid.
func ProcessInfo(socketPath string) (bool, int) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		return false, 0
	}
	defer client.Close()
	status, err := client.Status()
	if err != nil {
		return true, 0
	}
	return true, status.PID
}

func waitForSocketGone(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			return true
		}
		client.Close()
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func terminateProcess(pid int, grace time.Duration) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return err
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if err := process.Signal(syscall.Signal(0)); err != nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return process.Kill()
}

func pidFilePath(cfg *config.Config) string {
	return cfg.PIDPath()
}

func readPIDFile(path string) int {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0
	}
	return pid
}
