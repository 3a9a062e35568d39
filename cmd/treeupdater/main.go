package main

import (
	"fmt"
	"os"

	"github.com/BlakeFelix/tree-updater/internal/cli"
	"github.com/BlakeFelix/tree-updater/internal/utils"
)

// main is the entry point for the treeupdater command.
func main() {
	verbose := false
	for _, argumentValue := range os.Args[1:] {
		if argumentValue == "--verbose" {
			verbose = true
		}
	}
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(verbose)
	if loggerInitializationError != nil {
		panic(fmt.Errorf("initializing logger: %w", loggerInitializationError))
	}
	defer loggerInstance.Sync()
	if applicationExecutionError := cli.Execute(loggerInstance); applicationExecutionError != nil {
		loggerInstance.Fatal(applicationExecutionError.Error())
	}
}
