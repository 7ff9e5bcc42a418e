package main

import (
	"fmt"
	"os"

	"github.com/bottlesort/bsort/internal/cli"
	"github.com/bottlesort/bsort/internal/logging"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var initErr error
	if os.Getenv("BSORT_LOG") == "production" {
		initErr = logging.InitProduction()
	} else {
		initErr = logging.InitDevelopment()
	}
	if initErr != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", initErr)
		os.Exit(1)
	}
	defer logging.Sync()

	root := cli.NewRoot(fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit))
	if err := root.Execute(); err != nil {
		logging.S().Errorf("%v", err)
		logging.Sync()
		os.Exit(1)
	}
}
