package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeYAML(t, `
python:
  scripts_dir: /opt/transformers/examples
  virtualenv: /opt/venv
environment:
  cuda_visible_devices: "0"
  torch_extensions_dir: /tmp/torch_ext
default_settings:
  timeout: 90
  max_seq_length: 256
  eval_batch_size: 16
quantization:
  default_preset: bert_squad
  overrides:
    sst2: distilbert_sst2
evaluation:
  output_dir: /data/eval_runs
database:
  enabled: true
  host: localhost
  port: 5432
  user: quantbench
  password: secret
`)

	m := NewManager(path)
	require.NoError(t, m.LoadConfig())

	cfg := m.GetConfig()
	require.Equal(t, "/opt/transformers/examples", cfg.Python.ScriptsDir)
	require.Equal(t, "/opt/venv", cfg.Python.Virtualenv)
	require.Equal(t, "0", cfg.Environment.CudaVisibleDevices)
	require.Equal(t, 90, cfg.DefaultSettings.Timeout)
	require.Equal(t, 256, cfg.DefaultSettings.MaxSeqLength)
	require.Equal(t, 16, cfg.DefaultSettings.EvalBatchSize)
	require.Equal(t, "bert_squad", cfg.Quantization.DefaultPreset)
	require.Equal(t, "distilbert_sst2", cfg.Quantization.Overrides["sst2"])
	require.Equal(t, "/data/eval_runs", cfg.Evaluation.OutputDir)
	require.True(t, cfg.Database.Enabled)
	require.Equal(t, "quantbench_runs", cfg.Elastic.Index)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeYAML(t, "python:\n  scripts_dir: /opt/scripts\n")

	m := NewManager(path)
	require.NoError(t, m.LoadConfig())

	cfg := m.GetConfig()
	require.Equal(t, 120, cfg.DefaultSettings.Timeout)
	require.Equal(t, 128, cfg.DefaultSettings.MaxSeqLength)
	require.Equal(t, 8, cfg.DefaultSettings.EvalBatchSize)
	require.NotEmpty(t, cfg.Evaluation.OutputDir)
	require.NotEmpty(t, cfg.Quantization.PresetDir)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, m.LoadConfig())
	require.NotNil(t, m.GetConfig())
	require.Equal(t, 120, m.GetConfig().DefaultSettings.Timeout)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	m := NewManager(writeYAML(t, "python: [not: a map\n"))
	require.Error(t, m.LoadConfig())
}

func TestLoadConfigRejectsMissingInterpreter(t *testing.T) {
	m := NewManager(writeYAML(t, `
python:
  interpreter: /nonexistent/bin/python
`))
	require.Error(t, m.LoadConfig())
}
