package cmd

import (
	"os"

	"github.com/dotcommander/awsknow/internal/config"
	"github.com/dotcommander/awsknow/internal/log"
)

// Execute wires commands and runs Cobra.
func Execute(build BuildInfo, cfg config.Config, cfgErr error) {
	defer maybeWriteMemProfile()
	defer log.Sync()

	root := NewRootCmd(build, cfg, cfgErr)
	if err := root.Execute(); err != nil {
		handleError(os.Stderr, err)
		log.Sync()
		os.Exit(1)
	}
}
