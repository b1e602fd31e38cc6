package main

import (
	"fmt"
	"os"

	"github.com/hostflow-stack/hostflow/cmd/hostflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
