package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/quantops/quantbench/pkg/config"
)

// Invocation is a resolved evaluator command: interpreter, script and the
// argument list built from a RunSpec, plus the log file the child writes to.
type Invocation struct {
	Interpreter string
	Script      string
	Args        []string
	Env         []string
	LogPath     string
}

func NewInvocation(cfg *config.Config, spec *RunSpec) (*Invocation, error) {
	interpreter, err := FindInterpreter(&cfg.Python)
	if err != nil {
		return nil, fmt.Errorf("interpreter lookup failed: %w", err)
	}

	script, err := FindScript(&cfg.Python, spec.Task.Script)
	if err != nil {
		return nil, fmt.Errorf("evaluator script lookup failed: %w", err)
	}

	args, err := BuildArgs(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluator args: %w", err)
	}

	absOutputDir, err := filepath.Abs(spec.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for output dir: %w", err)
	}

	return &Invocation{
		Interpreter: interpreter,
		Script:      script,
		Args:        args,
		Env:         BuildEnv(&cfg.Environment),
		LogPath:     filepath.Join(absOutputDir, "eval.log"),
	}, nil
}

func (inv *Invocation) CommandLine() string {
	return fmt.Sprintf("%s %s %s", inv.Interpreter, inv.Script, strings.Join(inv.Args, " "))
}

// Run executes the evaluator in the foreground, streaming stdout and stderr
// into the log file. The child's exit status propagates as the returned
// error; whatever it printed stays in the log for post-mortem.
func (inv *Invocation) Run(ctx context.Context, verbose bool) error {
	logFile, err := os.Create(inv.LogPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	if verbose {
		fmt.Printf("[DBG] executing: %s\n", inv.CommandLine())
		fmt.Printf("[DBG] log file: %s\n", inv.LogPath)
	}

	cmd := exec.CommandContext(ctx, inv.Interpreter, append([]string{inv.Script}, inv.Args...)...)
	cmd.Env = inv.Env
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("evaluator timed out: %w", ctx.Err())
		}
		return fmt.Errorf("evaluator failed (see %s): %w", inv.LogPath, err)
	}

	return nil
}
