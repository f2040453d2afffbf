package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quantops/quantbench/pkg/nncf"
	"github.com/quantops/quantbench/pkg/tasks"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List supported benchmark tasks",
	Long:  `List the benchmark tasks the evaluator supports, with their script and primary metric`,
	Run:   runTasks,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, args []string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, color.CyanString("TASK\tKIND\tSCRIPT\tPRIMARY_METRIC"))
	fmt.Fprintln(w, strings.Repeat("-", 60))

	for _, task := range tasks.All() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			task.Name,
			task.Kind,
			task.Script,
			task.PrimaryMetric,
		)
	}
	w.Flush()

	fmt.Println()
	color.Cyan("Quantization presets: %s", strings.Join(nncf.PresetNames(), ", "))
}
