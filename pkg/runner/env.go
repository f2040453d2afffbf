package runner

import (
	"os"
	"strings"

	"github.com/quantops/quantbench/pkg/config"
)

// BuildEnv assembles the child process environment. The evaluator cares
// about three exports: which GPU to use, where torch builds its CUDA
// extensions, and the binary search path.
func BuildEnv(cfg *config.Environment) []string {
	return mergeEnv(os.Environ(), cfg)
}

func mergeEnv(base []string, cfg *config.Environment) []string {
	env := make([]string, 0, len(base)+3)
	sawPath := false

	for _, kv := range base {
		key := kv
		if idx := strings.Index(kv, "="); idx >= 0 {
			key = kv[:idx]
		}

		switch key {
		case "CUDA_VISIBLE_DEVICES":
			if cfg.CudaVisibleDevices != "" {
				continue
			}
		case "TORCH_EXTENSIONS_DIR":
			if cfg.TorchExtensionsDir != "" {
				continue
			}
		case "PATH":
			sawPath = true
			if cfg.ExtraPath != "" {
				env = append(env, "PATH="+cfg.ExtraPath+string(os.PathListSeparator)+kv[len("PATH="):])
				continue
			}
		}

		env = append(env, kv)
	}

	if cfg.CudaVisibleDevices != "" {
		env = append(env, "CUDA_VISIBLE_DEVICES="+cfg.CudaVisibleDevices)
	}
	if cfg.TorchExtensionsDir != "" {
		env = append(env, "TORCH_EXTENSIONS_DIR="+cfg.TorchExtensionsDir)
	}
	if !sawPath && cfg.ExtraPath != "" {
		env = append(env, "PATH="+cfg.ExtraPath)
	}

	return env
}
