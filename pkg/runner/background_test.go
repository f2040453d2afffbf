package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadPidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PidFileName), []byte("12345\n"), 0644))

	pid, err := ReadPidFile(dir)
	require.NoError(t, err)
	require.Equal(t, 12345, pid)
}

func TestReadPidFileMissing(t *testing.T) {
	_, err := ReadPidFile(t.TempDir())
	require.Error(t, err)
}

func TestReadPidFileGarbage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PidFileName), []byte("not-a-pid\n"), 0644))

	_, err := ReadPidFile(dir)
	require.Error(t, err)
}

func TestAlive(t *testing.T) {
	require.True(t, Alive(os.Getpid()))
	// pids wrap well below this on linux
	require.False(t, Alive(1<<22+12345))
}
