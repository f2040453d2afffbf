package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quantops/quantbench/pkg/database"
	"github.com/quantops/quantbench/pkg/orchestrator"
	"github.com/quantops/quantbench/pkg/runner"
)

var (
	trackStatus string
	trackAll    bool
)

var trackCmd = &cobra.Command{
	Use:   "track [model]",
	Short: "Query evaluation run history",
	Long:  `Query the evaluation run history database for a specific model or all models`,
	Run:   runTrack,
}

func init() {
	trackCmd.Flags().StringVar(&trackStatus, "status", "", "filter by status (running, completed, failed)")
	trackCmd.Flags().BoolVar(&trackAll, "all", false, "query all models")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) {
	if !trackAll && len(args) == 0 {
		color.Red("Error: either provide a model or use --all flag")
		cmd.Help()
		os.Exit(1)
	}

	if trackAll && len(args) > 0 {
		color.Red("Error: cannot use both model and --all flag together")
		cmd.Help()
		os.Exit(1)
	}

	orch, err := orchestrator.NewOrchestrator(configFile)
	if err != nil {
		color.Red("Failed to initialize orchestrator: %v", err)
		os.Exit(1)
	}

	db := orch.GetDB()
	if db == nil || !db.IsEnabled() {
		color.Red("Error: Database is not enabled. Please enable it in config.yaml")
		os.Exit(1)
	}

	if trackStatus != "" {
		trackStatus = strings.ToUpper(trackStatus)
	}

	var records []database.RunRecord

	if trackAll {
		records, err = db.QueryAllRuns(trackStatus)
		if err != nil {
			color.Red("Failed to query database: %v", err)
			os.Exit(1)
		}
	} else {
		records, err = db.QueryRuns(args[0], trackStatus)
		if err != nil {
			color.Red("Failed to query database: %v", err)
			os.Exit(1)
		}

		if len(records) == 0 {
			color.Yellow("[INF] Model %s not found in database.", args[0])
			os.Exit(0)
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, color.CyanString("MODEL\tTASK\tSEQ\tQUANT\tSTATUS\tMETRIC\tSTARTED\tFINISHED"))
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, r := range records {
		status := liveStatus(r.Status, r.LogPath)

		statusColor := color.GreenString
		if status == "FAILED" || status == "STALE" {
			statusColor = color.RedString
		} else if status == "RUNNING" {
			statusColor = color.YellowString
		}

		metric := "-"
		if r.MetricValue.Valid {
			metric = fmt.Sprintf("%s=%.4f", r.MetricName, r.MetricValue.Float64)
		}

		quant := "fp32"
		if r.Quantized {
			quant = "int8"
		}

		finished := "-"
		if r.FinishedAt.Valid {
			finished = r.FinishedAt.Time.Format("2006-01-02 15:04:05")
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			r.Model,
			r.Task,
			r.SeqLength,
			quant,
			statusColor(status),
			metric,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			finished,
		)
	}
	w.Flush()

	color.Green("\nTotal records: %d", len(records))
}

// liveStatus checks a RUNNING row against the pid file next to its log.
// A detached evaluator that died never updates the database, so a dead pid
// shows up as STALE instead of RUNNING.
func liveStatus(status, logPath string) string {
	if status != "RUNNING" || logPath == "" {
		return status
	}

	pid, err := runner.ReadPidFile(filepath.Dir(logPath))
	if err != nil {
		return status
	}
	if !runner.Alive(pid) {
		return "STALE"
	}
	return status
}
