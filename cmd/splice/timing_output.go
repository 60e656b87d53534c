package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"splice/internal/observ"
)

// newTimer returns a timer when --timings is set, nil otherwise. A nil
// timer records nothing.
func newTimer(cmd *cobra.Command) (*observ.Timer, error) {
	on, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil || !on {
		return nil, err
	}
	return observ.NewTimer(), nil
}

func printTimings(out io.Writer, t *observ.Timer) {
	if out == nil || t == nil {
		return
	}
	if _, err := fmt.Fprint(out, t.Summary()); err != nil {
		panic(err)
	}
}
