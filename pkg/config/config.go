package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var DebugLog func(string, ...interface{})

type Config struct {
	Python          Python          `yaml:"python"`
	Environment     Environment     `yaml:"environment"`
	DefaultSettings DefaultSettings `yaml:"default_settings"`
	Quantization    Quantization    `yaml:"quantization"`
	Evaluation      Evaluation      `yaml:"evaluation"`
	Database        Database        `yaml:"database"`
	Elastic         Elastic         `yaml:"elastic"`
}

type Python struct {
	Interpreter string `yaml:"interpreter"`
	ScriptsDir  string `yaml:"scripts_dir"`
	Virtualenv  string `yaml:"virtualenv"`
}

type Environment struct {
	CudaVisibleDevices string `yaml:"cuda_visible_devices"`
	TorchExtensionsDir string `yaml:"torch_extensions_dir"`
	ExtraPath          string `yaml:"extra_path"`
}

type DefaultSettings struct {
	Timeout       int `yaml:"timeout"`
	MaxSeqLength  int `yaml:"max_seq_length"`
	EvalBatchSize int `yaml:"eval_batch_size"`
}

type Quantization struct {
	PresetDir     string            `yaml:"preset_dir"`
	DefaultPreset string            `yaml:"default_preset"`
	Overrides     map[string]string `yaml:"overrides"`
}

type Evaluation struct {
	OutputDir          string `yaml:"output_dir"`
	OverwriteOutputDir bool   `yaml:"overwrite_output_dir"`
	KeepLogs           bool   `yaml:"keep_logs"`
}

type Database struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type Elastic struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Index    string `yaml:"index"`
}

type Manager struct {
	config     *Config
	configPath string
}

func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
	}
}

func (m *Manager) LoadConfig() error {
	if m.configPath == "" {
		m.configPath = m.findConfigFile()
	}

	if DebugLog != nil {
		DebugLog("loading config from %s", m.configPath)
	}

	var config Config

	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		if DebugLog != nil {
			DebugLog("no config file found, using built-in defaults")
		}
		applyDefaults(&config)
		m.config = &config
		return nil
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	if err := m.validateConfig(&config); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	m.config = &config
	return nil
}

func applyDefaults(config *Config) {
	if config.DefaultSettings.Timeout <= 0 {
		config.DefaultSettings.Timeout = 120
	}
	if config.DefaultSettings.MaxSeqLength <= 0 {
		config.DefaultSettings.MaxSeqLength = 128
	}
	if config.DefaultSettings.EvalBatchSize <= 0 {
		config.DefaultSettings.EvalBatchSize = 8
	}
	if config.Evaluation.OutputDir == "" {
		config.Evaluation.OutputDir = filepath.Join(GetCacheDir(), "runs")
	}
	if config.Quantization.PresetDir == "" {
		config.Quantization.PresetDir = filepath.Join(GetCacheDir(), "presets")
	}
	if config.Elastic.Index == "" {
		config.Elastic.Index = "quantbench_runs"
	}
}

func (m *Manager) GetConfig() *Config {
	return m.config
}

func (m *Manager) findConfigFile() string {
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}

	if _, err := os.Stat("config/config.yaml"); err == nil {
		return "config/config.yaml"
	}

	return GetDefaultConfigPath()
}

func (m *Manager) validateConfig(config *Config) error {
	if config.DefaultSettings.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}

	if config.DefaultSettings.MaxSeqLength <= 0 {
		return fmt.Errorf("max_seq_length must be greater than 0")
	}

	if config.Python.Interpreter != "" {
		if _, err := os.Stat(config.Python.Interpreter); os.IsNotExist(err) {
			return fmt.Errorf("python interpreter not found at %s", config.Python.Interpreter)
		}
	}

	return nil
}
