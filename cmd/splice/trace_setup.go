package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"splice/internal/project"
	"splice/internal/trace"
)

// setupTracing reads the trace flags and attaches a tracer to the command
// context. Without any trace flag the [trace] section of the nearest
// splice.toml is used. It returns a cleanup function that flushes and
// closes the tracer; after a failure it also prints the in-memory events.
func setupTracing(cmd *cobra.Command) (func(failed bool), error) {
	pf := cmd.Root().PersistentFlags()

	traceOutput, err := pf.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := pf.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := pf.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := pf.GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := pf.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := pf.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	var cfg trace.Config
	explicit := pf.Changed("trace") || pf.Changed("trace-level") || pf.Changed("trace-mode") || pf.Changed("trace-format")
	if fromManifest, ok := manifestTraceConfig(); ok && !explicit {
		cfg = fromManifest
	} else {
		if cfg.Level, err = trace.ParseLevel(levelStr); err != nil {
			return nil, fmt.Errorf("invalid trace level: %w", err)
		}
		if cfg.Level == trace.LevelOff && traceOutput != "" {
			cfg.Level = trace.LevelPhase
		}
		if cfg.Mode, err = trace.ParseMode(modeStr); err != nil {
			return nil, fmt.Errorf("invalid trace mode: %w", err)
		}
		if cfg.Format, err = trace.ParseFormat(formatStr); err != nil {
			return nil, fmt.Errorf("invalid trace format: %w", err)
		}
		cfg.OutputPath = traceOutput
	}
	cfg.RingSize = ringSize
	cfg.Heartbeat = heartbeatInterval

	if cfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func(bool) {}, nil
	}

	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	return func(failed bool) {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if failed {
			if err := trace.CrashDump(tracer, cmd.ErrOrStderr()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

// manifestTraceConfig reads [trace] from the splice.toml above the working
// directory. Missing or broken manifests are ignored here; commands that
// need the project report them.
func manifestTraceConfig() (trace.Config, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return trace.Config{}, false
	}
	path, ok, err := project.FindManifest(wd)
	if err != nil || !ok {
		return trace.Config{}, false
	}
	cfg, err := project.LoadConfig(path)
	if err != nil {
		return trace.Config{}, false
	}
	root, _, _ := project.FindProjectRoot(wd)
	tc, err := cfg.TraceConfig(root)
	if err != nil || tc.Level == trace.LevelOff {
		return trace.Config{}, false
	}
	return tc, true
}
