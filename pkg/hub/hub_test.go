package hub

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsLocal(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"/models/bert-int8", true},
		{"./checkpoints/sst2", true},
		{"../shared/bert", true},
		{"bert-base-uncased", false},
		{"textattack/bert-base-uncased-MRPC", false},
	}

	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			require.Equal(t, tc.want, IsLocal(tc.model))
		})
	}
}

func TestIsLocalExistingRelativeDir(t *testing.T) {
	require.True(t, IsLocal(t.TempDir()))
}

func TestCheckModelLocalPath(t *testing.T) {
	s := New(5 * time.Second)
	ctx := context.Background()

	dir := t.TempDir()
	require.NoError(t, s.CheckModel(ctx, dir))

	err := s.CheckModel(ctx, filepath.Join(dir, "missing", "checkpoint"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "local checkpoint not found")
}
