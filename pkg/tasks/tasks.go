package tasks

import (
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	KindGlue  Kind = "glue"
	KindSquad Kind = "squad"
)

// Task describes one benchmark the external evaluator knows how to run.
// GLUE tasks are addressed with --task_name, SQuAD variants with
// --dataset_name; both conventions belong to the evaluator, not to us.
type Task struct {
	Name          string
	Kind          Kind
	Script        string
	DatasetName   string
	PrimaryMetric string
	ExtraMetrics  []string
}

var registry = map[string]Task{
	"cola":  {Name: "cola", Kind: KindGlue, Script: "run_glue.py", PrimaryMetric: "eval_matthews_correlation"},
	"mnli":  {Name: "mnli", Kind: KindGlue, Script: "run_glue.py", PrimaryMetric: "eval_accuracy"},
	"mrpc":  {Name: "mrpc", Kind: KindGlue, Script: "run_glue.py", PrimaryMetric: "eval_accuracy", ExtraMetrics: []string{"eval_f1"}},
	"qnli":  {Name: "qnli", Kind: KindGlue, Script: "run_glue.py", PrimaryMetric: "eval_accuracy"},
	"qqp":   {Name: "qqp", Kind: KindGlue, Script: "run_glue.py", PrimaryMetric: "eval_accuracy", ExtraMetrics: []string{"eval_f1"}},
	"rte":   {Name: "rte", Kind: KindGlue, Script: "run_glue.py", PrimaryMetric: "eval_accuracy"},
	"sst2":  {Name: "sst2", Kind: KindGlue, Script: "run_glue.py", PrimaryMetric: "eval_accuracy"},
	"stsb":  {Name: "stsb", Kind: KindGlue, Script: "run_glue.py", PrimaryMetric: "eval_pearson", ExtraMetrics: []string{"eval_spearmanr"}},
	"wnli":  {Name: "wnli", Kind: KindGlue, Script: "run_glue.py", PrimaryMetric: "eval_accuracy"},
	"squad": {Name: "squad", Kind: KindSquad, Script: "run_qa.py", DatasetName: "squad",
		PrimaryMetric: "eval_f1", ExtraMetrics: []string{"eval_exact_match"}},
	"squad_v2": {Name: "squad_v2", Kind: KindSquad, Script: "run_qa.py", DatasetName: "squad_v2",
		PrimaryMetric: "eval_f1", ExtraMetrics: []string{"eval_exact_match"}},
}

func Get(name string) (Task, bool) {
	task, ok := registry[normalize(name)]
	return task, ok
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func All() []Task {
	all := make([]Task, 0, len(registry))
	for _, name := range Names() {
		all = append(all, registry[name])
	}
	return all
}

func normalize(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.ReplaceAll(name, "-", "_")
	// common aliases seen in checkpoint names
	switch name {
	case "sst_2":
		return "sst2"
	case "sts_b":
		return "stsb"
	case "squadv2", "squad2":
		return "squad_v2"
	}
	return name
}

// Select resolves a comma separated include list and a comma separated
// exclude list against the registry. Unknown names produce warnings through
// warn, not errors, as long as at least one task survives.
func Select(selected, excluded string, warn func(string, ...interface{})) ([]Task, error) {
	if selected != "" && excluded != "" {
		if warn != nil {
			warn("Both -t (tasks) and --et (exclude) specified. Using -t and ignoring exclusions.")
		}
		excluded = ""
	}

	excludedSet := make(map[string]bool)
	for _, name := range splitList(excluded) {
		excludedSet[normalize(name)] = true
	}

	var result []Task

	if selected != "" {
		for _, name := range splitList(selected) {
			task, ok := Get(name)
			if !ok {
				if warn != nil {
					warn("Unknown task: %s", name)
				}
				continue
			}
			result = append(result, task)
		}
		if len(result) == 0 {
			return nil, fmt.Errorf("no valid tasks in selection %q (supported: %s)",
				selected, strings.Join(Names(), ", "))
		}
		return result, nil
	}

	for _, task := range All() {
		if !excludedSet[task.Name] {
			result = append(result, task)
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("all tasks excluded")
	}
	return result, nil
}

func splitList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
