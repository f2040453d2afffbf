package nncf

import (
	"encoding/json"
	"fmt"
	"os"
)

var DebugLog func(string, ...interface{})

// Config is the parsed form of an NNCF JSON config. The schema belongs to
// the compression library; we keep the document intact as a map and only
// check the parts the runner depends on.
type Config struct {
	raw map[string]interface{}
}

var knownAlgorithms = map[string]bool{
	"quantization":           true,
	"magnitude_sparsity":     true,
	"rb_sparsity":            true,
	"const_sparsity":         true,
	"movement_sparsity":      true,
	"filter_pruning":         true,
	"knowledge_distillation": true,
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read nncf config: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse nncf config: %w", err)
	}

	return &Config{raw: raw}, nil
}

// Validate checks the config is something the compression library will
// accept: a compression section with recognized algorithm names. Everything
// else is passed through opaquely.
func (c *Config) Validate() error {
	compression, ok := c.raw["compression"]
	if !ok {
		return fmt.Errorf("nncf config has no compression section")
	}

	switch section := compression.(type) {
	case map[string]interface{}:
		return validateAlgorithm(section)
	case []interface{}:
		if len(section) == 0 {
			return fmt.Errorf("compression section is empty")
		}
		for _, entry := range section {
			algo, ok := entry.(map[string]interface{})
			if !ok {
				return fmt.Errorf("compression entry is not an object")
			}
			if err := validateAlgorithm(algo); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("compression section has unexpected type")
	}
}

func validateAlgorithm(algo map[string]interface{}) error {
	name, ok := algo["algorithm"].(string)
	if !ok || name == "" {
		return fmt.Errorf("compression algorithm name is missing")
	}
	if !knownAlgorithms[name] {
		return fmt.Errorf("unknown compression algorithm: %s", name)
	}
	return nil
}

func (c *Config) Algorithms() []string {
	var names []string

	appendName := func(entry interface{}) {
		if algo, ok := entry.(map[string]interface{}); ok {
			if name, ok := algo["algorithm"].(string); ok {
				names = append(names, name)
			}
		}
	}

	switch section := c.raw["compression"].(type) {
	case map[string]interface{}:
		appendName(section)
	case []interface{}:
		for _, entry := range section {
			appendName(entry)
		}
	}

	return names
}

func (c *Config) LogDir() string {
	dir, _ := c.raw["log_dir"].(string)
	return dir
}

// EnsureLogDir fills in log_dir when the config leaves it unset, matching
// what the evaluator would do with the run output dir.
func (c *Config) EnsureLogDir(outputDir string) {
	if c.LogDir() == "" {
		c.raw["log_dir"] = outputDir
	}
}

func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c.raw, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal nncf config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write nncf config: %w", err)
	}

	return nil
}
