package runner

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const PidFileName = "eval.pid"

// Start launches the evaluator detached from the CLI, equivalent to
// `... > eval.log 2>&1 &`. The child gets its own process group so it
// keeps running after quantbench exits; the pid lands next to the log.
func (inv *Invocation) Start(verbose bool) (int, error) {
	logFile, err := os.Create(inv.LogPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	if verbose {
		fmt.Printf("[DBG] executing in background: %s\n", inv.CommandLine())
		fmt.Printf("[DBG] log file: %s\n", inv.LogPath)
	}

	cmd := exec.Command(inv.Interpreter, append([]string{inv.Script}, inv.Args...)...)
	cmd.Env = inv.Env
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start evaluator: %w", err)
	}

	pid := cmd.Process.Pid

	pidFile := filepath.Join(filepath.Dir(inv.LogPath), PidFileName)
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return pid, fmt.Errorf("failed to write pid file: %w", err)
	}

	// detach: the process group keeps the child alive, Release drops our
	// handle so the CLI can exit without reaping it
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("failed to release process: %w", err)
	}

	return pid, nil
}

func ReadPidFile(outputDir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, PidFileName))
	if err != nil {
		return 0, fmt.Errorf("failed to read pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid file contents: %w", err)
	}

	return pid, nil
}

// Alive reports whether a previously started evaluator is still running.
func Alive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
