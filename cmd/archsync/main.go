// Package main provides the entry point for the archsync CLI tool.
package main

import "github.com/archsync/archsync/cmd/archsync/cmd"

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
