package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRewriteFlagAlias(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"-model", "--model"},
		{"-rL", "--rL"},
		{"-list", "--rL"},
		{"-tasks", "--tasks"},
		{"-et", "--et"},
		{"-nncf-config", "--nncf-config"},
		{"-no-quant", "--no-quant"},
		{"-onnx", "--onnx"},
		{"-seq-length", "--seq-length"},
		{"-batch-size", "--batch-size"},
		{"-bg", "--background"},
		{"-background", "--background"},
		{"-parallel", "--parallel"},
		{"-skip-hub-check", "--skip-hub-check"},
		{"-overwrite", "--overwrite"},
		{"-output", "--output"},
		{"-json", "--json"},
		{"-silent", "--silent"},
		{"-stats", "--stats"},
		{"-config", "--config"},
		{"-verbose", "--verbose"},
		// shorthands and values pass through untouched
		{"-t", "-t"},
		{"-m", "-m"},
		{"sst2", "sst2"},
		{"--tasks", "--tasks"},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, rewriteFlagAlias(tc.arg), "arg %q", tc.arg)
	}
}

func TestRewrittenTasksFlagParses(t *testing.T) {
	args := []string{"-tasks", "sst2", "-model", "bert-base-uncased"}
	for i, arg := range args {
		args[i] = rewriteFlagAlias(arg)
	}

	require.NoError(t, rootCmd.Flags().Parse(args))
	require.Equal(t, "sst2", taskList)
	require.Equal(t, "bert-base-uncased", model)
}
