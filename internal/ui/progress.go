// Package ui renders project-wide inline progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"splice/internal/refactor"
)

type progressModel struct {
	title      string
	events     <-chan refactor.Event
	spinner    spinner.Model
	prog       progress.Model
	items      []fileItem
	index      map[string]int
	stageLabel string
	width      int
	done       bool
}

type fileItem struct {
	path     string
	status   string
	stage    refactor.Stage
	usages   int
	replaced int
}

type eventMsg refactor.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders inline progress.
// Files missing from files get a row on their first event.
func NewProgressModel(title string, files []string, events <-chan refactor.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int, len(files)),
		width:   80,
	}
	for _, file := range files {
		m.row(file)
	}
	return m
}

func (m *progressModel) row(path string) int {
	if idx, ok := m.index[path]; ok {
		return idx
	}
	m.items = append(m.items, fileItem{path: path, status: "queued"})
	m.index[path] = len(m.items) - 1
	return len(m.items) - 1
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(refactor.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-12-14, 20)
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		counts := ""
		if item.usages > 0 {
			counts = fmt.Sprintf("  %d/%d", item.replaced, item.usages)
		}
		fmt.Fprintf(&b, "  %s %s%s\n", status, truncate(item.path, nameWidth), counts)
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev refactor.Event) tea.Cmd {
	if ev.Title != "" {
		m.title = ev.Title
	}
	label := statusLabel(ev.Stage, ev.Status)
	if ev.File == "" {
		if label != "" {
			m.stageLabel = label
		}
		return nil
	}
	item := &m.items[m.row(ev.File)]
	if label != "" {
		item.status = label
		item.stage = ev.Stage
	}
	if ev.Usages > 0 {
		item.usages = ev.Usages
	}
	if ev.Stage == refactor.StageReplace && ev.Status != refactor.StatusWorking {
		item.replaced = ev.Replaced
	}

	total := 0.0
	for _, it := range m.items {
		total += progressOf(it)
	}
	return m.prog.SetPercent(total / float64(len(m.items)))
}

// stageInfo describes how a working stage is shown and how far a file
// in that stage is from finished.
type stageInfo struct {
	label string
	share float64
}

var stages = map[refactor.Stage]stageInfo{
	refactor.StageSearch:  {"searching", 0.1},
	refactor.StageReplace: {"inlining", 0.5},
	refactor.StageImports: {"imports", 0.8},
	refactor.StageShorten: {"shortening", 0.9},
}

// progressOf оценивает долю готовности файла.
func progressOf(it fileItem) float64 {
	switch it.status {
	case "error", "skipped":
		return 1
	case "done":
		return 1
	case "found":
		// поиск закончен, замены ещё впереди
		if it.usages > 0 {
			return 0.3
		}
		return 1
	}
	return stages[it.stage].share
}

func statusLabel(stage refactor.Stage, status refactor.Status) string {
	switch status {
	case refactor.StatusWorking:
		return stages[stage].label
	case refactor.StatusDone:
		if stage == refactor.StageSearch {
			return "found"
		}
	}
	return string(status)
}

var (
	styleDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleSkipped = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleActive  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleIdle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return styleDone
	case "error":
		return styleError
	case "skipped":
		return styleSkipped
	case "queued", "":
		return styleIdle
	}
	return styleActive
}

// truncate shortens value to width display cells, marking the cut with "...".
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	tail := "..."
	if width <= len(tail) {
		tail = ""
	}
	return runewidth.Truncate(value, width, tail)
}
