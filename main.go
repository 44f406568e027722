// Package main provides the awsknow CLI.
package main

import (
	"github.com/dotcommander/awsknow/internal/cmd"
	"github.com/dotcommander/awsknow/internal/config"
)

// Build vars.
var (
	//nolint: gochecknoglobals
	Version = ""
	//nolint: gochecknoglobals
	CommitSHA = ""
)

func main() {
	cfg, cfgErr := config.Load("")
	cmd.Execute(cmd.BuildInfo{Version: Version, CommitSHA: CommitSHA}, cfg, cfgErr)
}
