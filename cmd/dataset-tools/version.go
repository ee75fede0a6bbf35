package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version information, set by ldflags during build.
var (
	Version   = ""
	BuildTime = ""
	GitCommit = ""
)

// getVersion returns the version.
// Priority: ldflags > debug.ReadBuildInfo > "dev"
func getVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// getCommit returns the git commit.
func getCommit() string {
	if GitCommit != "" {
		return GitCommit
	}
	return buildSetting("vcs.revision")
}

// getDate returns the build time.
func getDate() string {
	if BuildTime != "" {
		return BuildTime
	}
	return buildSetting("vcs.time")
}

func buildSetting(key string) string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == key && s.Value != "" {
				return s.Value
			}
		}
	}
	return "unknown"
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dataset-tools %s\n", getVersion())
			fmt.Fprintf(cmd.OutOrStdout(), "  Build time: %s\n", getDate())
			fmt.Fprintf(cmd.OutOrStdout(), "  Git commit: %s\n", getCommit())
		},
	}
}
