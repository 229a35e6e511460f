package main

import (
	"fmt"
	"os"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "rr-dig"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}
