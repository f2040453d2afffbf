package main

import "github.com/quantops/quantbench/cmd"

func main() {
	cmd.Execute()
}
