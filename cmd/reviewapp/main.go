// Package main provides the entry point for the reviewapp CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mrz1836/reviewapp/internal/cli"
)

// Set via -ldflags at release time.
//
//nolint:gochecknoglobals // build metadata
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	os.Exit(run())
}

func run() int {
	defer cli.CloseLogFile()

	err := cli.Execute(context.Background(), cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error: "+err.Error())
	}
	return cli.ExitCodeForError(err)
}
