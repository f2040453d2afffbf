package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeRunList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadRunList(t *testing.T) {
	path := writeRunList(t, `
# quantized bert sweep
bert-base-uncased sst2 128
bert-large-uncased-whole-word-masking-finetuned-squad squad 384

textattack/bert-base-uncased-MRPC mrpc
`)

	entries, err := ReadRunList(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.Equal(t, "bert-base-uncased", entries[0].Model)
	require.Equal(t, "sst2", entries[0].Task.Name)
	require.Equal(t, 128, entries[0].SeqLength)

	require.Equal(t, "squad", entries[1].Task.Name)
	require.Equal(t, 384, entries[1].SeqLength)

	require.Equal(t, "textattack/bert-base-uncased-MRPC", entries[2].Model)
	require.Zero(t, entries[2].SeqLength)
}

func TestReadRunListRejectsBadLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing task", "bert-base-uncased\n"},
		{"unknown task", "bert-base-uncased imagenet\n"},
		{"bad seq length", "bert-base-uncased sst2 lots\n"},
		{"negative seq length", "bert-base-uncased sst2 -5\n"},
		{"empty file", "# nothing here\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadRunList(writeRunList(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestReadRunListMissingFile(t *testing.T) {
	_, err := ReadRunList(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
