package cmd

import (
	"fmt"
	"os"
	"runtime/pprof"
)

// memprofile writes heap and alloc profiles to the current directory when
// the process exits. Hidden from help.
var memprofile bool

func maybeWriteMemProfile() {
	if !memprofile {
		return
	}
	for _, name := range []string{"heap", "allocs"} {
		if err := writeProfile(name, "awsknow_"+name+".profile"); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
	}
}

func writeProfile(name, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s profile: %w", name, err)
	}
	defer func() { _ = f.Close() }()
	if err := pprof.Lookup(name).WriteTo(f, 0); err != nil {
		return fmt.Errorf("write %s profile: %w", name, err)
	}
	return nil
}
