package tasks

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetKnownTasks(t *testing.T) {
	task, ok := Get("sst2")
	require.True(t, ok)
	require.Equal(t, KindGlue, task.Kind)
	require.Equal(t, "run_glue.py", task.Script)
	require.Equal(t, "eval_accuracy", task.PrimaryMetric)

	task, ok = Get("squad_v2")
	require.True(t, ok)
	require.Equal(t, KindSquad, task.Kind)
	require.Equal(t, "run_qa.py", task.Script)
	require.Equal(t, "squad_v2", task.DatasetName)
}

func TestGetAliases(t *testing.T) {
	tests := []struct {
		alias string
		want  string
	}{
		{"SST-2", "sst2"},
		{"sts-b", "stsb"},
		{"squadv2", "squad_v2"},
		{"squad2", "squad_v2"},
		{"  mrpc  ", "mrpc"},
	}

	for _, tc := range tests {
		t.Run(tc.alias, func(t *testing.T) {
			task, ok := Get(tc.alias)
			require.True(t, ok)
			require.Equal(t, tc.want, task.Name)
		})
	}
}

func TestGetUnknown(t *testing.T) {
	_, ok := Get("imagenet")
	require.False(t, ok)
}

func TestSelectIncludeList(t *testing.T) {
	selected, err := Select("sst2, mrpc", "", nil)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	require.Equal(t, "sst2", selected[0].Name)
	require.Equal(t, "mrpc", selected[1].Name)
}

func TestSelectSkipsUnknownWithWarning(t *testing.T) {
	var warnings []string
	warn := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	selected, err := Select("sst2,nope", "", warn)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "nope")
}

func TestSelectAllUnknownFails(t *testing.T) {
	_, err := Select("nope,alsonope", "", nil)
	require.Error(t, err)
}

func TestSelectExclude(t *testing.T) {
	selected, err := Select("", "mnli,qqp,squad,squad_v2", nil)
	require.NoError(t, err)
	require.Len(t, selected, len(All())-4)
	for _, task := range selected {
		require.NotEqual(t, "mnli", task.Name)
		require.NotEqual(t, "qqp", task.Name)
		require.NotEqual(t, KindSquad, task.Kind)
	}
}

func TestSelectIncludeWinsOverExclude(t *testing.T) {
	var warnings []string
	warn := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	selected, err := Select("rte", "rte", warn)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	require.Equal(t, "rte", selected[0].Name)
	require.NotEmpty(t, warnings)
}

func TestSelectDefaultIsEverything(t *testing.T) {
	selected, err := Select("", "", nil)
	require.NoError(t, err)
	require.Len(t, selected, len(All()))
}
