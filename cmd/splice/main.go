package main

import (
	"os"

	"github.com/spf13/cobra"

	"splice/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "splice",
	Short: "Inline Kt functions and properties at their call sites",
	Long: `splice replaces calls of a Kt function or property with its body,
binding arguments, preserving evaluation order and cleaning up the result.`,
	SilenceUsage:       true,
	PersistentPreRunE:  persistentPreRun,
	PersistentPostRunE: persistentPostRun,
}

// main registers the subcommands and persistent flags and executes the root
// command. A failing command exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(inlineCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	pf.String("ui", "auto", "progress UI for project-wide inlining (auto|on|off)")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "events kept in ring mode")
	pf.Duration("trace-heartbeat", 0, "heartbeat interval (0 disables)")
	pf.String("cpu-profile", "", "write a CPU profile to file")
	pf.String("mem-profile", "", "write a heap profile to file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	err := rootCmd.Execute()
	// PostRun не вызывается при ошибке команды
	runCleanups(err != nil)
	if err != nil {
		os.Exit(1)
	}
}

var (
	traceCleanup   func(failed bool)
	profileCleanup func()
)

func persistentPreRun(cmd *cobra.Command, _ []string) error {
	stopProfile, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	profileCleanup = stopProfile
	stopTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	traceCleanup = stopTrace
	return nil
}

func persistentPostRun(*cobra.Command, []string) error {
	runCleanups(false)
	return nil
}

func runCleanups(failed bool) {
	if traceCleanup != nil {
		traceCleanup(failed)
		traceCleanup = nil
	}
	if profileCleanup != nil {
		profileCleanup()
		profileCleanup = nil
	}
}

