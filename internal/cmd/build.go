package cmd

import (
	"fmt"
	goruntime "runtime"
	"runtime/debug"
)

const shortSHA = 7

// BuildInfo is injected by the build pipeline.
type BuildInfo struct {
	Version   string
	CommitSHA string
}

// versionTemplate returns the Cobra version template string including
// commit SHA, Go version, and OS/arch.
func versionTemplate(b BuildInfo) string {
	v := "{{.Name}} {{.Version}}"
	if len(b.CommitSHA) >= shortSHA {
		v += " (" + b.CommitSHA[:shortSHA] + ")"
	}
	v += fmt.Sprintf(" %s %s/%s\n", goruntime.Version(), goruntime.GOOS, goruntime.GOARCH)
	return v
}

func normalizeBuildInfo(b BuildInfo) BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		if b.Version == "" {
			b.Version = "unknown"
		}
		return b
	}

	if b.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}

	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if b.CommitSHA == "" {
		b.CommitSHA = rev
	}

	if b.Version == "" {
		b.Version = "dev"
		if len(rev) >= shortSHA {
			b.Version += "-" + rev[:shortSHA]
		}
		if dirty {
			b.Version += "-dirty"
		}
	}
	return b
}
