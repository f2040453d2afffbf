package cmd

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantops/quantbench/pkg/runner"
)

func writePidFile(t *testing.T, dir string, pid int) string {
	t.Helper()
	path := filepath.Join(dir, runner.PidFileName)
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0644))
	return filepath.Join(dir, "eval.log")
}

func TestLiveStatusDetectsDeadEvaluator(t *testing.T) {
	// pid far above the default pid_max, never a live process
	logPath := writePidFile(t, t.TempDir(), 1<<22+12345)

	require.Equal(t, "STALE", liveStatus("RUNNING", logPath))
}

func TestLiveStatusKeepsLiveEvaluator(t *testing.T) {
	logPath := writePidFile(t, t.TempDir(), os.Getpid())

	require.Equal(t, "RUNNING", liveStatus("RUNNING", logPath))
}

func TestLiveStatusPassesThroughFinishedRuns(t *testing.T) {
	require.Equal(t, "COMPLETED", liveStatus("COMPLETED", "/some/log/eval.log"))
	require.Equal(t, "FAILED", liveStatus("FAILED", ""))
}

func TestLiveStatusMissingPidFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "eval.log")

	require.Equal(t, "RUNNING", liveStatus("RUNNING", logPath))
}
