package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quantops/quantbench/pkg/config"
	"github.com/quantops/quantbench/pkg/database"
	"github.com/quantops/quantbench/pkg/elastic"
	"github.com/quantops/quantbench/pkg/hub"
	"github.com/quantops/quantbench/pkg/metrics"
	"github.com/quantops/quantbench/pkg/nncf"
	"github.com/quantops/quantbench/pkg/runner"
	"github.com/quantops/quantbench/pkg/tasks"
)

var DebugLog func(string, ...interface{})

type Orchestrator struct {
	config        *config.Config
	configManager *config.Manager
	logger        *logrus.Logger
	db            *database.DB
}

type RunOptions struct {
	Model        string
	Tasks        string
	ExcludeTasks string
	SeqLength    int
	BatchSize    int
	OutputDir    string
	NNCFConfig   string
	NoQuant      bool
	ToONNX       bool
	Overwrite    bool
	Background   bool
	JSONFormat   bool
	Stats        bool
	Parallel     int
	SkipHubCheck bool
}

type TaskStat struct {
	Name     string
	Duration time.Duration
	Metric   string
	Errors   int
}

type TaskResult struct {
	Task        tasks.Task
	OutputDir   string
	LogPath     string
	Metrics     map[string]float64
	MetricName  string
	MetricValue float64
	Background  bool
	Pid         int
	Err         error

	startTime time.Time
	endTime   time.Time
}

func (r *TaskResult) Duration() time.Duration {
	return r.endTime.Sub(r.startTime)
}

type RunResult struct {
	Model       string
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	Success     bool
	Errors      []error
	TaskResults []TaskResult
	TaskStats   []TaskStat
	RecordsPath string
}

type customFormatter struct{}

func (f *customFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var levelText string
	switch entry.Level {
	case logrus.InfoLevel:
		levelText = "[INF]"
	case logrus.WarnLevel:
		levelText = "[WARN]"
	case logrus.ErrorLevel:
		levelText = "[ERR]"
	case logrus.DebugLevel:
		levelText = "[DBG]"
	default:
		levelText = "[???]"
	}
	return []byte(fmt.Sprintf("%s %s\n", levelText, entry.Message)), nil
}

func NewOrchestrator(configPath string) (*Orchestrator, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&customFormatter{})

	configManager := config.NewManager(configPath)
	if err := configManager.LoadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg := configManager.GetConfig()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Warnf("Database initialization failed: %v", err)
	}

	return &Orchestrator{
		config:        cfg,
		configManager: configManager,
		logger:        logger,
		db:            db,
	}, nil
}

func (o *Orchestrator) GetConfig() *config.Config {
	return o.config
}

func (o *Orchestrator) GetDB() *database.DB {
	return o.db
}

// RunEval runs the selected benchmark tasks for one model. Tasks run
// sequentially by default (one GPU, one evaluator) and fan out over a
// bounded worker pool when Parallel asks for it.
func (o *Orchestrator) RunEval(options RunOptions) (*RunResult, error) {
	startTime := time.Now()

	result := &RunResult{
		Model:     options.Model,
		StartTime: startTime,
		Errors:    []error{},
	}

	selected, err := tasks.Select(options.Tasks, options.ExcludeTasks, o.logger.Warnf)
	if err != nil {
		return nil, fmt.Errorf("task selection failed: %w", err)
	}

	o.logger.Infof("Evaluating %s on %d task(s): %s",
		options.Model, len(selected), taskNames(selected))

	if !options.SkipHubCheck {
		if err := o.checkModel(options.Model); err != nil {
			return nil, fmt.Errorf("model check failed: %w", err)
		}
	}

	specs := make([]*runner.RunSpec, 0, len(selected))
	for _, task := range selected {
		spec, err := o.buildSpec(options, task)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	result.RecordsPath = filepath.Join(o.outputRoot(options), "runs.jsonl")

	if options.Background {
		for _, spec := range specs {
			taskResult := o.startDetached(spec)
			result.TaskResults = append(result.TaskResults, taskResult)
			if taskResult.Err != nil {
				result.Errors = append(result.Errors, taskResult.Err)
			}
		}
	} else {
		o.runForeground(specs, options, result)
	}

	endTime := time.Now()
	result.EndTime = endTime
	result.Duration = endTime.Sub(startTime)
	result.Success = len(result.Errors) == 0

	if !options.Background && o.config.Elastic.Enabled {
		if err := o.indexRecords(result.RecordsPath); err != nil {
			o.logger.Warnf("Failed to index run records: %v", err)
		}
	}

	return result, nil
}

func (o *Orchestrator) runForeground(specs []*runner.RunSpec, options RunOptions, result *RunResult) {
	parallel := options.Parallel
	if parallel < 1 {
		parallel = 1
	}
	if parallel > len(specs) {
		parallel = len(specs)
	}

	type indexed struct {
		idx int
		res TaskResult
	}

	jobs := make(chan int)
	results := make(chan indexed)
	wg := &sync.WaitGroup{}

	for w := 0; w < parallel; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- indexed{idx: idx, res: o.runOne(specs[idx], options)}
			}
		}()
	}

	go func() {
		for idx := range specs {
			jobs <- idx
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	taskResults := make([]TaskResult, len(specs))
	for r := range results {
		taskResults[r.idx] = r.res
	}

	for _, taskResult := range taskResults {
		result.TaskResults = append(result.TaskResults, taskResult)
		if taskResult.Err != nil {
			result.Errors = append(result.Errors, taskResult.Err)
		}
	}

	if options.Stats {
		for _, taskResult := range taskResults {
			stat := TaskStat{
				Name:     taskResult.Task.Name,
				Duration: taskResult.Duration(),
			}
			if taskResult.Err != nil {
				stat.Errors = 1
			} else if !taskResult.Background {
				stat.Metric = fmt.Sprintf("%s=%.4f", taskResult.MetricName, taskResult.MetricValue)
			}
			result.TaskStats = append(result.TaskStats, stat)
		}
	}
}

func (o *Orchestrator) buildSpec(options RunOptions, task tasks.Task) (*runner.RunSpec, error) {
	seqLength := options.SeqLength
	if seqLength <= 0 {
		seqLength = o.config.DefaultSettings.MaxSeqLength
	}

	batchSize := options.BatchSize
	if batchSize <= 0 {
		batchSize = o.config.DefaultSettings.EvalBatchSize
	}

	outputDir := filepath.Join(o.outputRoot(options), sanitizeModel(options.Model), task.Name)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	spec := &runner.RunSpec{
		Model:     options.Model,
		Task:      task,
		SeqLength: seqLength,
		BatchSize: batchSize,
		OutputDir: outputDir,
		Overwrite: options.Overwrite || o.config.Evaluation.OverwriteOutputDir,
	}

	if !options.NoQuant {
		configPath, err := o.resolveQuantConfig(options, task, outputDir)
		if err != nil {
			return nil, err
		}
		spec.NNCFConfig = configPath
	}

	if options.ToONNX {
		suffix := "fp32"
		if spec.Quantized() {
			suffix = "int8"
		}
		spec.ToONNX = filepath.Join(outputDir, fmt.Sprintf("%s_%s.onnx", task.Name, suffix))
	}

	return spec, nil
}

// resolveQuantConfig picks the quantization config for a task: the explicit
// flag wins, then a per-task override from the config file, then the default
// preset. No match means an unquantized run. The evaluator gets a per-run
// copy in the output dir with log_dir bound, so the source config stays
// untouched and compression logs land next to the run.
func (o *Orchestrator) resolveQuantConfig(options RunOptions, task tasks.Task, outputDir string) (string, error) {
	nameOrPath := options.NNCFConfig
	if nameOrPath == "" {
		nameOrPath = o.config.Quantization.Overrides[task.Name]
	}
	if nameOrPath == "" {
		nameOrPath = o.config.Quantization.DefaultPreset
	}
	if nameOrPath == "" {
		if DebugLog != nil {
			DebugLog("no quantization config for %s, running fp32 baseline", task.Name)
		}
		return "", nil
	}

	path, err := nncf.Resolve(nameOrPath, o.config.Quantization.PresetDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve quantization config: %w", err)
	}

	cfg, err := nncf.Load(path)
	if err != nil {
		return "", err
	}
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid quantization config %s: %w", path, err)
	}

	cfg.EnsureLogDir(outputDir)

	runCopy := filepath.Join(outputDir, "nncf_config.json")
	if err := cfg.Save(runCopy); err != nil {
		return "", fmt.Errorf("failed to write run quantization config: %w", err)
	}

	if DebugLog != nil {
		DebugLog("quantization config for %s: %s -> %s (%s)",
			task.Name, path, runCopy, strings.Join(cfg.Algorithms(), ", "))
	}

	return runCopy, nil
}

func (o *Orchestrator) runOne(spec *runner.RunSpec, options RunOptions) TaskResult {
	taskResult := TaskResult{
		Task:      spec.Task,
		OutputDir: spec.OutputDir,
		startTime: time.Now(),
	}

	inv, err := runner.NewInvocation(o.config, spec)
	if err != nil {
		taskResult.Err = fmt.Errorf("%s: %w", spec.Task.Name, err)
		taskResult.endTime = time.Now()
		return taskResult
	}
	taskResult.LogPath = inv.LogPath

	runID, err := o.db.TrackRunStart(spec.Model, spec.Task.Name, spec.SeqLength, spec.Quantized(), inv.LogPath)
	if err != nil {
		o.logger.Warnf("Failed to record run start: %v", err)
	}

	o.logger.Infof("Running %s on %s (seq=%d, quantized=%v)",
		spec.Task.Script, spec.Task.Name, spec.SeqLength, spec.Quantized())

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(o.config.DefaultSettings.Timeout)*time.Minute)
	defer cancel()

	if err := inv.Run(ctx, DebugLog != nil); err != nil {
		taskResult.Err = fmt.Errorf("%s: %w", spec.Task.Name, err)
		taskResult.endTime = time.Now()
		o.failRun(runID)
		return taskResult
	}

	values, err := metrics.Collect(spec.OutputDir, inv.LogPath)
	if err != nil {
		taskResult.Err = fmt.Errorf("%s: %w", spec.Task.Name, err)
		taskResult.endTime = time.Now()
		o.failRun(runID)
		return taskResult
	}

	taskResult.endTime = time.Now()
	taskResult.Metrics = values
	taskResult.MetricName = spec.Task.PrimaryMetric

	if value, ok := metrics.Primary(values, spec.Task.PrimaryMetric); ok {
		taskResult.MetricValue = value
	} else {
		o.logger.Warnf("Primary metric %s missing from %s results", spec.Task.PrimaryMetric, spec.Task.Name)
	}

	o.logger.Infof("%s complete: %s = %.4f (%v)",
		spec.Task.Name, taskResult.MetricName, taskResult.MetricValue,
		taskResult.Duration().Round(time.Second))

	if err := o.db.FinishRun(runID, taskResult.MetricName, taskResult.MetricValue); err != nil {
		o.logger.Warnf("Failed to record run completion: %v", err)
	}

	record := metrics.RunRecord{
		Model:       spec.Model,
		Task:        spec.Task.Name,
		SeqLength:   spec.SeqLength,
		Quantized:   spec.Quantized(),
		NNCFConfig:  spec.NNCFConfig,
		MetricName:  taskResult.MetricName,
		MetricValue: taskResult.MetricValue,
		Metrics:     values,
		Duration:    taskResult.Duration().Seconds(),
		Timestamp:   taskResult.endTime,
	}
	recordsPath := filepath.Join(o.outputRoot(options), "runs.jsonl")
	if err := metrics.AppendRecord(recordsPath, record); err != nil {
		o.logger.Warnf("Failed to append run record: %v", err)
	}

	return taskResult
}

func (o *Orchestrator) startDetached(spec *runner.RunSpec) TaskResult {
	taskResult := TaskResult{
		Task:       spec.Task,
		OutputDir:  spec.OutputDir,
		Background: true,
		startTime:  time.Now(),
	}

	inv, err := runner.NewInvocation(o.config, spec)
	if err != nil {
		taskResult.Err = fmt.Errorf("%s: %w", spec.Task.Name, err)
		taskResult.endTime = time.Now()
		return taskResult
	}
	taskResult.LogPath = inv.LogPath

	if _, err := o.db.TrackRunStart(spec.Model, spec.Task.Name, spec.SeqLength, spec.Quantized(), inv.LogPath); err != nil {
		o.logger.Warnf("Failed to record run start: %v", err)
	}

	pid, err := inv.Start(DebugLog != nil)
	if err != nil {
		taskResult.Err = fmt.Errorf("%s: %w", spec.Task.Name, err)
		taskResult.endTime = time.Now()
		return taskResult
	}

	taskResult.Pid = pid
	taskResult.endTime = time.Now()

	o.logger.Infof("%s started in background (pid %d), log: %s",
		spec.Task.Name, pid, inv.LogPath)

	return taskResult
}

func (o *Orchestrator) checkModel(model string) error {
	session := hub.New(30 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := session.CheckModel(ctx, model); err != nil {
		return err
	}

	if DebugLog != nil {
		DebugLog("model %s resolved", model)
	}
	return nil
}

func (o *Orchestrator) failRun(runID int64) {
	if err := o.db.FailRun(runID); err != nil {
		o.logger.Warnf("Failed to record run failure: %v", err)
	}
}

func (o *Orchestrator) indexRecords(recordsPath string) error {
	if _, err := os.Stat(recordsPath); os.IsNotExist(err) {
		return nil
	}

	client, err := elastic.New(elastic.Config{
		URL:      o.config.Elastic.URL,
		Username: o.config.Elastic.Username,
		Password: o.config.Elastic.Password,
		Index:    o.config.Elastic.Index,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	return client.IndexRunRecords(ctx, recordsPath)
}

func (o *Orchestrator) outputRoot(options RunOptions) string {
	if options.OutputDir != "" {
		return options.OutputDir
	}
	return o.config.Evaluation.OutputDir
}

func sanitizeModel(model string) string {
	return strings.ReplaceAll(strings.Trim(model, "/."), "/", "__")
}

func taskNames(selected []tasks.Task) string {
	names := make([]string, 0, len(selected))
	for _, task := range selected {
		names = append(names, task.Name)
	}
	return strings.Join(names, ", ")
}
