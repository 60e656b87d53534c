package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"splice/internal/refactor"
	"splice/internal/ui"
)

type inlineOutcome struct {
	report *refactor.Report
	err    error
}

// runWithUI runs fn in the background and renders its progress events
// until fn returns.
func runWithUI(title string, files []string, fn func(sink refactor.Sink) (*refactor.Report, error)) (*refactor.Report, error) {
	events := make(chan refactor.Event, 256)
	outcomeCh := make(chan inlineOutcome, 1)

	go func() {
		rep, err := fn(refactor.ChannelSink{Ch: events})
		outcomeCh <- inlineOutcome{report: rep, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// UI мог выйти раньше: дочитываем события, чтобы fn не блокировался
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.report, uiErr
	}
	return outcome.report, outcome.err
}
