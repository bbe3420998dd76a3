// Package main provides the entry point for the crostini-setup CLI.
package main

import "os"

func main() {
	os.Exit(run())
}
