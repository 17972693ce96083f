package main

import (
	"fmt"
	"os"
)

// version is set at build time with -ldflags.
var version = "dev"

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
