package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"splice/internal/version"
)

// buildInfo is what `splice version --json` prints.
type buildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Message string `json:"message,omitempty"`
	Built   string `json:"built,omitempty"`
}

var (
	versionJSON    bool
	versionVerbose bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print build info as JSON")
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "include commit and build date")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show splice build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeVersion(cmd.OutOrStdout(), currentBuild(versionVerbose), versionJSON)
	},
}

// currentBuild reads the link-time metadata; commit fields stay empty unless verbose.
func currentBuild(verbose bool) buildInfo {
	info := buildInfo{Version: strings.TrimSpace(version.Version)}
	if info.Version == "" {
		info.Version = "dev"
	}
	if !verbose {
		return info
	}
	info.Commit = orUnknown(version.GitCommit)
	info.Message = orUnknown(version.GitMessage)
	info.Built = orUnknown(version.BuildDate)
	return info
}

func writeVersion(out io.Writer, info buildInfo, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(out).Encode(info)
	}
	v := info.Version
	if v == strings.TrimSpace(version.Version) {
		v = version.Colored()
	}
	if _, err := fmt.Fprintf(out, "splice %s\n", v); err != nil {
		return err
	}
	for _, kv := range [][2]string{{"commit", info.Commit}, {"message", info.Message}, {"built", info.Built}} {
		if kv[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(out, "  %-9s%s\n", kv[0]+":", kv[1]); err != nil {
			return err
		}
	}
	return nil
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
