// Package main provides cgtool, a command line front end for the contentgraph
// value model: paths, names, namespaces, value conversion, binaries and the
// REST server.
package main

import (
	"fmt"
	"os"
)

const (
	Version = "0.1.0"
	appName = "cgtool"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
