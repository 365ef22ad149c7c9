// Package main is the entry point for the albion-network traffic sniffer.
package main

import (
	"fmt"
	"os"

	"github.com/zMarques/albion-network/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
