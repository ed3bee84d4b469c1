// Command websearch searches the web through one or more configured
// providers. "websearch serve" exposes the search as an MCP tool over
// stdio; "websearch query" runs a single search from the shell.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "websearch:", err)
		os.Exit(1)
	}
}
