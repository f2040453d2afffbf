package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quantops/quantbench/pkg/config"
	"github.com/quantops/quantbench/pkg/database"
	"github.com/quantops/quantbench/pkg/hub"
	"github.com/quantops/quantbench/pkg/metrics"
	"github.com/quantops/quantbench/pkg/nncf"
	"github.com/quantops/quantbench/pkg/orchestrator"
	"github.com/quantops/quantbench/pkg/tasks"
)

var (
	configFile   string
	model        string
	runList      string
	outputFile   string
	jsonFormat   bool
	silent       bool
	stats        bool
	verbose      bool
	taskList     string
	excludeTasks string
	seqLength    int
	batchSize    int
	nncfConfig   string
	noQuant      bool
	toONNX       bool
	overwrite    bool
	background   bool
	parallel     int
	skipHubCheck bool
)

var Verbose bool

var rootCmd = &cobra.Command{
	Use:   "quantbench",
	Short: "quantized transformer evaluation runner",
	Long:  `benchmark runner for quantized transformer checkpoints on GLUE and SQuAD`,
	Run:   runEval,
}

func Execute() {
	hasSilentFlag := false
	for i, arg := range os.Args {
		os.Args[i] = rewriteFlagAlias(arg)
		if os.Args[i] == "--silent" {
			hasSilentFlag = true
		}
	}

	if !hasSilentFlag {
		printBanner()
	}

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// rewriteFlagAlias maps the single-dash long forms the help text advertises
// onto the double-dash flags pflag actually parses. Without this, pflag
// reads "-tasks" as the shorthand "-t" with value "asks".
func rewriteFlagAlias(arg string) string {
	switch arg {
	case "-model":
		return "--model"
	case "-rL", "-list":
		return "--rL"
	case "-tasks":
		return "--tasks"
	case "-et":
		return "--et"
	case "-nncf-config":
		return "--nncf-config"
	case "-no-quant":
		return "--no-quant"
	case "-onnx":
		return "--onnx"
	case "-seq-length":
		return "--seq-length"
	case "-batch-size":
		return "--batch-size"
	case "-bg", "-background":
		return "--background"
	case "-parallel":
		return "--parallel"
	case "-skip-hub-check":
		return "--skip-hub-check"
	case "-overwrite":
		return "--overwrite"
	case "-output":
		return "--output"
	case "-json":
		return "--json"
	case "-silent":
		return "--silent"
	case "-stats":
		return "--stats"
	case "-config":
		return "--config"
	case "-verbose":
		return "--verbose"
	}
	return arg
}

func DebugLog(format string, args ...interface{}) {
	if Verbose {
		fmt.Printf("[DBG] "+format+"\n", args...)
	}
}

func setDebugLogFunctions() {
	config.DebugLog = DebugLog
	orchestrator.DebugLog = DebugLog
	database.DebugLog = DebugLog
	metrics.DebugLog = DebugLog
	nncf.DebugLog = DebugLog
	hub.DebugLog = DebugLog
}

func init() {
	rootCmd.SetHelpTemplate(`Usage:
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasAvailableSubCommands}}Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}Flags:
INPUT:
   -m, -model string       model checkpoint to evaluate (hub id or local path)
   -rL, -list string       file containing 'model task [seq_length]' lines

TASKS:
   -t, -tasks string       comma-separated list of tasks to run (e.g., 'sst2,mrpc')
   -et string              comma-separated list of tasks to exclude

QUANTIZATION:
   -q, -nncf-config string quantization config: file path or preset name
   -no-quant               run the fp32 baseline without quantization
   -onnx                   export the evaluated model to ONNX

EXECUTION:
   -n, -seq-length int     maximum input sequence length after tokenization
   -b, -batch-size int     per-device evaluation batch size
   -bg, -background        run the evaluator detached, output to eval.log
   -p, -parallel int       number of tasks to evaluate concurrently
   -overwrite              overwrite a non-empty output directory
   -skip-hub-check         skip the model availability check

OUTPUT:
   -o, -output string      file to write results to
   -j, -json               write results in JSONL(ines) format
   -silent                 silent mode - no banner or extra output
   -stats                  display per-task statistics after the run

CONFIGURATION:
   -c, -config string      config file path (default: config/config.yaml)

OPTIMIZATION:
   -v, -verbose            enable verbose/debug output
{{if .HasAvailableSubCommands}}
Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default: config/config.yaml)")

	rootCmd.Flags().StringVarP(&model, "model", "m", "", "model checkpoint to evaluate (hub id or local path)")
	rootCmd.Flags().StringVar(&runList, "rL", "", "file containing 'model task [seq_length]' lines")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "file to write results to")
	rootCmd.Flags().BoolVarP(&jsonFormat, "json", "j", false, "write results in JSONL(ines) format")
	rootCmd.Flags().BoolVar(&silent, "silent", false, "silent mode - no banner or extra output")
	rootCmd.Flags().BoolVar(&stats, "stats", false, "display per-task statistics after the run")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose/debug output")
	rootCmd.Flags().StringVarP(&taskList, "tasks", "t", "", "comma-separated list of tasks to run (e.g., 'sst2,mrpc')")
	rootCmd.Flags().StringVar(&excludeTasks, "et", "", "comma-separated list of tasks to exclude")
	rootCmd.Flags().IntVarP(&seqLength, "seq-length", "n", 0, "maximum input sequence length after tokenization")
	rootCmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "per-device evaluation batch size")
	rootCmd.Flags().StringVarP(&nncfConfig, "nncf-config", "q", "", "quantization config: file path or preset name")
	rootCmd.Flags().BoolVar(&noQuant, "no-quant", false, "run the fp32 baseline without quantization")
	rootCmd.Flags().BoolVar(&toONNX, "onnx", false, "export the evaluated model to ONNX")
	rootCmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite a non-empty output directory")
	rootCmd.Flags().BoolVar(&background, "background", false, "run the evaluator detached, output to eval.log")
	rootCmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "number of tasks to evaluate concurrently")
	rootCmd.Flags().BoolVar(&skipHubCheck, "skip-hub-check", false, "skip the model availability check")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

func runEval(cmd *cobra.Command, args []string) {
	if model == "" && runList == "" {
		color.Red("Error: either -m (model) or -rL (run list) is required")
		cmd.Help()
		os.Exit(1)
	}

	if model != "" && runList != "" {
		color.Red("Error: cannot use both -m and -rL flags together")
		cmd.Help()
		os.Exit(1)
	}

	if nncfConfig != "" && noQuant {
		color.Red("Error: cannot use both -q and --no-quant flags together")
		cmd.Help()
		os.Exit(1)
	}

	Verbose = verbose

	if verbose {
		setDebugLogFunctions()
	}

	orch, err := orchestrator.NewOrchestrator(configFile)
	if err != nil {
		color.Red("Failed to initialize orchestrator: %v", err)
		os.Exit(1)
	}

	optionSets, err := buildOptionSets()
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}

	allSuccess := true
	for _, options := range optionSets {
		DebugLog("evaluating %s", options.Model)

		result, err := orch.RunEval(options)
		if err != nil {
			color.Red("Evaluation failed for %s: %v", options.Model, err)
			allSuccess = false
			continue
		}

		if err := handleOutput(result); err != nil {
			color.Red("Output error for %s: %v", options.Model, err)
			allSuccess = false
			continue
		}

		if stats && !silent {
			displayStatistics(result)
		}

		if !result.Success {
			allSuccess = false
		}
	}

	if allSuccess {
		os.Exit(0)
	} else {
		os.Exit(1)
	}
}

func buildOptionSets() ([]orchestrator.RunOptions, error) {
	base := orchestrator.RunOptions{
		Tasks:        taskList,
		ExcludeTasks: excludeTasks,
		SeqLength:    seqLength,
		BatchSize:    batchSize,
		NNCFConfig:   nncfConfig,
		NoQuant:      noQuant,
		ToONNX:       toONNX,
		Overwrite:    overwrite,
		Background:   background,
		JSONFormat:   jsonFormat,
		Stats:        stats,
		Parallel:     parallel,
		SkipHubCheck: skipHubCheck,
	}

	if model != "" {
		options := base
		options.Model = model
		return []orchestrator.RunOptions{options}, nil
	}

	entries, err := tasks.ReadRunList(runList)
	if err != nil {
		return nil, fmt.Errorf("failed to read run list: %w", err)
	}

	var optionSets []orchestrator.RunOptions
	for _, entry := range entries {
		options := base
		options.Model = entry.Model
		options.Tasks = entry.Task.Name
		options.ExcludeTasks = ""
		if entry.SeqLength > 0 {
			options.SeqLength = entry.SeqLength
		}
		optionSets = append(optionSets, options)
	}

	return optionSets, nil
}

func printBanner() {
	banner := color.CyanString(`
┌─┐ ┬ ┬┌─┐┌┐┌┌┬┐┌┐ ┌─┐┌┐┌┌─┐┬ ┬
│─┼┐│ │├─┤│││ │ ├┴┐├┤ ││││  ├─┤
└─┘└└─┘┴ ┴┘└┘ ┴ └─┘└─┘┘└┘└─┘┴ ┴
`)
	info := color.HiBlackString("int8 transformer evaluation runner for GLUE & SQuAD")
	fmt.Println(banner)
	fmt.Println(info)
	fmt.Println()
}

func handleOutput(result *orchestrator.RunResult) error {
	if !silent {
		displaySummary(result)
	}

	if outputFile == "" {
		return nil
	}

	if jsonFormat {
		return writeJSONFile(result, outputFile)
	}
	return writeTXTFile(result, outputFile)
}

func displaySummary(result *orchestrator.RunResult) {
	completed := 0
	started := 0
	for _, taskResult := range result.TaskResults {
		if taskResult.Background && taskResult.Err == nil {
			started++
		} else if taskResult.Err == nil {
			completed++
		}
	}

	if started > 0 {
		color.Green("\nStarted %d background run(s) for %s", started, result.Model)
		for _, taskResult := range result.TaskResults {
			if taskResult.Err == nil {
				color.Cyan("  %s: pid %d, log %s", taskResult.Task.Name, taskResult.Pid, taskResult.LogPath)
			}
		}
		return
	}

	color.Green("\nEvaluation completed: %d/%d tasks for %s in %v",
		completed, len(result.TaskResults), result.Model, result.Duration)

	for _, taskResult := range result.TaskResults {
		if taskResult.Err != nil {
			color.Red("  %s: %v", taskResult.Task.Name, taskResult.Err)
			continue
		}
		fmt.Printf("  %s: %s = %.4f\n", taskResult.Task.Name, taskResult.MetricName, taskResult.MetricValue)
	}
}

func writeTXTFile(result *orchestrator.RunResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	for _, taskResult := range result.TaskResults {
		if taskResult.Err != nil {
			continue
		}
		if _, err := fmt.Fprintf(file, "%s %s %s %.4f\n",
			result.Model, taskResult.Task.Name, taskResult.MetricName, taskResult.MetricValue); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
	}

	return nil
}

func writeJSONFile(result *orchestrator.RunResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	for _, taskResult := range result.TaskResults {
		if taskResult.Err != nil {
			continue
		}

		record := metrics.RunRecord{
			Model:       result.Model,
			Task:        taskResult.Task.Name,
			MetricName:  taskResult.MetricName,
			MetricValue: taskResult.MetricValue,
			Metrics:     taskResult.Metrics,
			Duration:    taskResult.Duration().Seconds(),
		}

		jsonBytes, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}

		if _, err := fmt.Fprintln(file, string(jsonBytes)); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
	}

	return nil
}

func displayStatistics(result *orchestrator.RunResult) {
	fmt.Println()

	color.Green("[INF] Evaluated %s on %d task(s) in %v",
		result.Model, len(result.TaskResults), result.Duration)
	fmt.Println()

	color.Cyan("[INF] Printing task statistics for %s", result.Model)
	fmt.Println()

	fmt.Printf(" %-12s %-15s %-28s %-10s\n", "Task", "Duration", "Result", "Errors")
	color.Cyan(strings.Repeat("─", 70))

	taskStats := result.TaskStats
	sort.Slice(taskStats, func(i, j int) bool {
		return taskStats[i].Name < taskStats[j].Name
	})

	for _, stat := range taskStats {
		duration := fmt.Sprintf("%.0fms", stat.Duration.Seconds()*1000)
		if stat.Duration.Seconds() >= 1 {
			duration = fmt.Sprintf("%.1fs", stat.Duration.Seconds())
		}

		fmt.Printf(" %-12s %-15s %-28s %-10d\n",
			stat.Name,
			duration,
			stat.Metric,
			stat.Errors,
		)
	}

	fmt.Println()
}
