package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rae-systems/scheduler/internal/scheduler"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch a read-only status dashboard",
	Long: `Tui opens a full-screen, read-only dashboard listing every persisted
job, its status, and a footer of aggregate scheduler stats, refreshed on
a one-second ticker. It opens its own scheduler on the data directory
without starting it, so statuses and stats come from this process's own
monitor, which records no runs: the run states of a running
"scheduler serve" are not shown.`,
	Run: runTUI,
}

var (
	primaryColor = lipgloss.Color("#7D56F4")
	successColor = lipgloss.Color("#00FF00")
	errorColor   = lipgloss.Color("#FF0000")
	dimColor     = lipgloss.Color("#666666")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	footerStyle = lipgloss.NewStyle().Foreground(dimColor)
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "Running":
		return lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	case "Completed":
		return lipgloss.NewStyle().Foreground(successColor)
	case "Failed", "Cancelled":
		return lipgloss.NewStyle().Foreground(errorColor)
	default:
		return lipgloss.NewStyle().Foreground(dimColor)
	}
}

type tickMsg time.Time

type tuiModel struct {
	s      *scheduler.Scheduler
	table  table.Model
	err    error
	width  int
	height int
}

func newTUIModel(s *scheduler.Scheduler) tuiModel {
	columns := []table.Column{
		{Title: "ID", Width: 36},
		{Title: "Name", Width: 20},
		{Title: "Status", Width: 12},
		{Title: "Priority", Width: 10},
		{Title: "Enabled", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	s2 := table.DefaultStyles()
	s2.Header = s2.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(primaryColor).BorderBottom(true).Bold(true)
	s2.Selected = s2.Selected.Foreground(lipgloss.Color("229")).Background(primaryColor).Bold(false)
	t.SetStyles(s2)

	return tuiModel{s: s, table: t, width: 100, height: 30}
}

func (m tuiModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m tuiModel) refresh() (tuiModel, tea.Cmd) {
	infos, err := m.s.ListJobs()
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	rows := make([]table.Row, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, table.Row{
			string(info.Job.ID),
			info.Job.Name,
			string(info.Status),
			info.Job.Priority.String(),
			fmt.Sprintf("%v", info.Job.Enabled),
		})
	}
	m.table.SetRows(rows)
	return m, nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(m.height - 8)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		newM, _ := m.refresh()
		return newM, tickCmd()
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m tuiModel) View() string {
	stats := m.s.Stats()
	header := titleStyle.Render("scheduler — job status")
	footer := footerStyle.Render(fmt.Sprintf(
		"total %d · running %d · completed %d · failed %d · success rate %.1f%%  (q to quit)",
		stats.TotalJobs, stats.RunningJobs, stats.CompletedJobs, stats.FailedJobs, stats.SuccessRate*100,
	))
	body := m.table.View()
	if m.err != nil {
		body = lipgloss.NewStyle().Foreground(errorColor).Render("error: " + m.err.Error())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", footer)
}

func runTUI(cmd *cobra.Command, args []string) {
	s, _, err := openScheduler()
	if err != nil {
		fail(err)
	}

	model := newTUIModel(s)
	model, _ = model.refresh()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
		os.Exit(1)
	}
}
