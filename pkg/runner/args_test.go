package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantops/quantbench/pkg/tasks"
)

func glueTask(t *testing.T, name string) tasks.Task {
	t.Helper()
	task, ok := tasks.Get(name)
	require.True(t, ok)
	return task
}

func TestBuildArgsGlue(t *testing.T) {
	dir := t.TempDir()
	nncfPath := filepath.Join(dir, "quant.json")
	require.NoError(t, os.WriteFile(nncfPath, []byte("{}"), 0644))

	spec := &RunSpec{
		Model:      "bert-base-uncased",
		Task:       glueTask(t, "sst2"),
		SeqLength:  128,
		BatchSize:  8,
		OutputDir:  filepath.Join(dir, "out"),
		NNCFConfig: nncfPath,
		Overwrite:  true,
	}

	args, err := BuildArgs(spec)
	require.NoError(t, err)

	require.Equal(t, []string{
		"--model_name_or_path", "bert-base-uncased",
		"--task_name", "sst2",
		"--do_eval",
		"--max_seq_length", "128",
		"--per_device_eval_batch_size", "8",
		"--output_dir", filepath.Join(dir, "out"),
		"--overwrite_output_dir",
		"--nncf_config", nncfPath,
	}, args)
}

func TestBuildArgsDeterministic(t *testing.T) {
	spec := &RunSpec{
		Model:     "bert-base-uncased",
		Task:      glueTask(t, "mrpc"),
		SeqLength: 128,
		OutputDir: t.TempDir(),
	}

	first, err := BuildArgs(spec)
	require.NoError(t, err)
	second, err := BuildArgs(spec)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestBuildArgsSquad(t *testing.T) {
	spec := &RunSpec{
		Model:     "bert-large-uncased-whole-word-masking-finetuned-squad",
		Task:      glueTask(t, "squad"),
		SeqLength: 384,
		OutputDir: t.TempDir(),
	}

	args, err := BuildArgs(spec)
	require.NoError(t, err)
	require.Contains(t, args, "--dataset_name")
	require.Contains(t, args, "squad")
	require.NotContains(t, args, "--task_name")
	require.NotContains(t, args, "--version_2_with_negative")
}

func TestBuildArgsSquadV2Negative(t *testing.T) {
	spec := &RunSpec{
		Model:     "deepset/bert-base-uncased-squad2",
		Task:      glueTask(t, "squad_v2"),
		SeqLength: 384,
		OutputDir: t.TempDir(),
	}

	args, err := BuildArgs(spec)
	require.NoError(t, err)
	require.Contains(t, args, "--version_2_with_negative")
}

func TestBuildArgsFp32BaselineOmitsNNCF(t *testing.T) {
	spec := &RunSpec{
		Model:     "bert-base-uncased",
		Task:      glueTask(t, "rte"),
		SeqLength: 128,
		OutputDir: t.TempDir(),
	}

	require.False(t, spec.Quantized())

	args, err := BuildArgs(spec)
	require.NoError(t, err)
	require.NotContains(t, args, "--nncf_config")
	require.NotContains(t, args, "--overwrite_output_dir")
}

func TestBuildArgsToONNX(t *testing.T) {
	dir := t.TempDir()
	spec := &RunSpec{
		Model:     "bert-base-uncased",
		Task:      glueTask(t, "sst2"),
		SeqLength: 128,
		OutputDir: dir,
		ToONNX:    filepath.Join(dir, "sst2_fp32.onnx"),
	}

	args, err := BuildArgs(spec)
	require.NoError(t, err)
	require.Contains(t, args, "--to_onnx")
	require.Contains(t, args, filepath.Join(dir, "sst2_fp32.onnx"))
}

func TestBuildArgsValidation(t *testing.T) {
	tests := []struct {
		name string
		spec RunSpec
	}{
		{"missing model", RunSpec{Task: glueTask(t, "sst2"), SeqLength: 128, OutputDir: "out"}},
		{"missing task", RunSpec{Model: "bert-base-uncased", SeqLength: 128, OutputDir: "out"}},
		{"zero seq length", RunSpec{Model: "bert-base-uncased", Task: glueTask(t, "sst2"), OutputDir: "out"}},
		{"missing output dir", RunSpec{Model: "bert-base-uncased", Task: glueTask(t, "sst2"), SeqLength: 128}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec := tc.spec
			_, err := BuildArgs(&spec)
			require.Error(t, err)
		})
	}
}
