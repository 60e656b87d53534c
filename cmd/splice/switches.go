package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// autoSwitch reads an auto|on|off persistent flag; auto follows whether f
// is a terminal.
func autoSwitch(cmd *cobra.Command, name string, f *os.File) (bool, error) {
	v, err := cmd.Root().PersistentFlags().GetString(name)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "", "auto":
		return isTerminal(f), nil
	}
	return false, fmt.Errorf("invalid --%s value %q (expected auto|on|off)", name, v)
}

func isTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	return autoSwitch(cmd, "color", f)
}

// uiEnabled: прогресс рисуется только без --quiet.
func uiEnabled(cmd *cobra.Command) (bool, error) {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil || quiet {
		return false, err
	}
	return autoSwitch(cmd, "ui", os.Stdout)
}
