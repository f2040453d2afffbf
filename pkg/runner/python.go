package runner

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/quantops/quantbench/pkg/config"
)

// FindInterpreter locates the python interpreter to run the evaluator with.
// An explicit interpreter from the config wins, then the configured
// virtualenv, then CONDA_PREFIX, then whatever is on PATH.
func FindInterpreter(cfg *config.Python) (string, error) {
	if cfg.Interpreter != "" {
		if _, err := os.Stat(cfg.Interpreter); err == nil {
			return cfg.Interpreter, nil
		}
		return "", fmt.Errorf("configured interpreter not found: %s", cfg.Interpreter)
	}

	candidates := []string{}

	if cfg.Virtualenv != "" {
		candidates = append(candidates, filepath.Join(cfg.Virtualenv, "bin", "python"))
	}

	if conda := os.Getenv("CONDA_PREFIX"); conda != "" {
		candidates = append(candidates, filepath.Join(conda, "bin", "python"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("python interpreter not found")
}

// FindScript resolves an evaluator script (run_glue.py, run_qa.py) under the
// configured scripts directory. The transformers example layout keeps the
// scripts in per-task subdirectories, so those are probed too.
func FindScript(cfg *config.Python, script string) (string, error) {
	if cfg.ScriptsDir == "" {
		return "", fmt.Errorf("python.scripts_dir is not configured")
	}

	candidates := []string{
		filepath.Join(cfg.ScriptsDir, script),
		filepath.Join(cfg.ScriptsDir, "text-classification", script),
		filepath.Join(cfg.ScriptsDir, "question-answering", script),
		filepath.Join(cfg.ScriptsDir, "pytorch", "text-classification", script),
		filepath.Join(cfg.ScriptsDir, "pytorch", "question-answering", script),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return filepath.Abs(path)
		}
	}

	return "", fmt.Errorf("%s not found under %s", script, cfg.ScriptsDir)
}
