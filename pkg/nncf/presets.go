package nncf

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const presetBaseURL = "https://raw.githubusercontent.com/openvinotoolkit/nncf/develop/third_party_integration/huggingface_transformers/"

// presets map short names to the reference quantization configs the
// compression library ships for the transformers integration.
var presets = map[string]string{
	"bert_squad":            "nncf_bert_config_squad.json",
	"bert_mrpc":             "nncf_bert_config_mrpc.json",
	"bert_xnli":             "nncf_bert_config_xnli.json",
	"roberta_mnli":          "nncf_roberta_config_mnli.json",
	"distilbert_sst2":       "nncf_distilbert_config_sst2.json",
	"mobilebert_squad_int8": "nncf_mobilebert_config_squad_int8.json",
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve turns a --nncf-config value into a config file path. A value that
// exists on disk is used as-is; otherwise it is treated as a preset name and
// fetched into presetDir on first use.
func Resolve(nameOrPath, presetDir string) (string, error) {
	if _, err := os.Stat(nameOrPath); err == nil {
		return filepath.Abs(nameOrPath)
	}

	filename, ok := presets[strings.TrimSpace(strings.ToLower(nameOrPath))]
	if !ok {
		return "", fmt.Errorf("nncf config %q is neither a file nor a known preset (presets: %s)",
			nameOrPath, strings.Join(PresetNames(), ", "))
	}

	if err := os.MkdirAll(presetDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create preset directory: %w", err)
	}

	path := filepath.Join(presetDir, filename)
	if err := downloadPreset(presetBaseURL+filename, path); err != nil {
		return "", fmt.Errorf("failed to fetch preset %s: %w", nameOrPath, err)
	}

	return filepath.Abs(path)
}

func downloadPreset(url, outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return nil
	}

	if DebugLog != nil {
		DebugLog("downloading preset from %s", url)
	}

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download preset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
