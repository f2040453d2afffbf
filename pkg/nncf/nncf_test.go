package nncf

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const quantConfig = `{
    "input_info": [
        {"sample_size": [1, 128], "type": "long"},
        {"sample_size": [1, 128], "type": "long"},
        {"sample_size": [1, 128], "type": "long"}
    ],
    "compression": {
        "algorithm": "quantization",
        "initializer": {
            "range": {"num_init_samples": 32},
            "batchnorm_adaptation": {"num_bn_adaptation_samples": 200}
        }
    }
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nncf_config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAndValidate(t *testing.T) {
	cfg, err := Load(writeConfig(t, quantConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, []string{"quantization"}, cfg.Algorithms())
}

func TestValidateCompressionList(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"compression": [
			{"algorithm": "quantization"},
			{"algorithm": "magnitude_sparsity"}
		]
	}`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, []string{"quantization", "magnitude_sparsity"}, cfg.Algorithms())
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no compression section", `{"input_info": []}`},
		{"empty compression list", `{"compression": []}`},
		{"unknown algorithm", `{"compression": {"algorithm": "turbo_quant"}}`},
		{"missing algorithm name", `{"compression": {"preset": "performance"}}`},
		{"compression wrong type", `{"compression": "quantization"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tc.content))
			require.NoError(t, err)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	_, err := Load(writeConfig(t, "{not json"))
	require.Error(t, err)
}

func TestEnsureLogDir(t *testing.T) {
	cfg, err := Load(writeConfig(t, quantConfig))
	require.NoError(t, err)
	require.Empty(t, cfg.LogDir())

	cfg.EnsureLogDir("/tmp/run_out")
	require.Equal(t, "/tmp/run_out", cfg.LogDir())

	// already set, keep it
	cfg.EnsureLogDir("/tmp/other")
	require.Equal(t, "/tmp/run_out", cfg.LogDir())
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := Load(writeConfig(t, quantConfig))
	require.NoError(t, err)
	cfg.EnsureLogDir("/tmp/run_out")

	out := filepath.Join(t.TempDir(), "saved.json")
	require.NoError(t, cfg.Save(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "/tmp/run_out", raw["log_dir"])
}

func TestResolveExistingFile(t *testing.T) {
	path := writeConfig(t, quantConfig)

	resolved, err := Resolve(path, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, path, resolved)
}

func TestResolveUnknownPreset(t *testing.T) {
	_, err := Resolve("turbo_preset", t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "turbo_preset")
}

func TestPresetNamesSorted(t *testing.T) {
	names := PresetNames()
	require.NotEmpty(t, names)
	require.Contains(t, names, "bert_squad")
	require.Contains(t, names, "distilbert_sst2")
	for i := 1; i < len(names); i++ {
		require.Less(t, names[i-1], names[i])
	}
}
