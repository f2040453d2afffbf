package runner

import (
	"fmt"
	"path/filepath"

	"github.com/quantops/quantbench/pkg/tasks"
)

// RunSpec is one fully-bound invocation of the external evaluator. An empty
// NNCFConfig means an unquantized (fp32) baseline run.
type RunSpec struct {
	Model      string
	Task       tasks.Task
	SeqLength  int
	BatchSize  int
	OutputDir  string
	NNCFConfig string
	ToONNX     string
	Overwrite  bool
}

func (s *RunSpec) Validate() error {
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if s.Task.Name == "" {
		return fmt.Errorf("task is required")
	}
	if s.SeqLength <= 0 {
		return fmt.Errorf("seq_length must be greater than 0")
	}
	if s.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	return nil
}

func (s *RunSpec) Quantized() bool {
	return s.NNCFConfig != ""
}

// BuildArgs constructs the evaluator command line for a spec. The flag order
// is fixed so that a given spec always produces the same command.
func BuildArgs(spec *RunSpec) ([]string, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	absOutputDir, err := filepath.Abs(spec.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for output dir: %w", err)
	}

	args := []string{
		"--model_name_or_path", spec.Model,
	}

	switch spec.Task.Kind {
	case tasks.KindGlue:
		args = append(args, "--task_name", spec.Task.Name)
	case tasks.KindSquad:
		args = append(args, "--dataset_name", spec.Task.DatasetName)
		if spec.Task.DatasetName == "squad_v2" {
			args = append(args, "--version_2_with_negative")
		}
	default:
		return nil, fmt.Errorf("unknown task kind: %s", spec.Task.Kind)
	}

	args = append(args,
		"--do_eval",
		"--max_seq_length", fmt.Sprintf("%d", spec.SeqLength),
	)

	if spec.BatchSize > 0 {
		args = append(args, "--per_device_eval_batch_size", fmt.Sprintf("%d", spec.BatchSize))
	}

	args = append(args, "--output_dir", absOutputDir)

	if spec.Overwrite {
		args = append(args, "--overwrite_output_dir")
	}

	if spec.NNCFConfig != "" {
		absConfig, err := filepath.Abs(spec.NNCFConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for nncf config: %w", err)
		}
		args = append(args, "--nncf_config", absConfig)
	}

	if spec.ToONNX != "" {
		absOnnx, err := filepath.Abs(spec.ToONNX)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for onnx output: %w", err)
		}
		args = append(args, "--to_onnx", absOnnx)
	}

	return args, nil
}
