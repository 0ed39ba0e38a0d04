package cli

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/gmviana/studysearch-go/internal/service"
)

const pollInterval = time.Second

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the job status
type tickMsg time.Time

// jobUpdateMsg carries the polled job counters
type jobUpdateMsg struct {
	status  service.JobStatus
	visited int
	indexed int
	chunks  int
	errMsg  string
}

// progressModel is the bubbletea model for crawl job progress. It polls
// the in-process job manager rather than a remote API.
type progressModel struct {
	jobs     *service.JobManager
	jobID    string
	update   jobUpdateMsg
	progress progress.Model
	theme    Theme
	maxPages int
	done     bool
	quitting bool
	err      error
}

// newProgressModel creates a new progress model.
func newProgressModel(jobs *service.JobManager, jobID string, maxPages int) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		jobs:     jobs,
		jobID:    jobID,
		progress: prog,
		theme:    defaultTheme,
		maxPages: maxPages,
	}
}

// Init returns the initial command (start polling).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, m.pollJob()

	case jobUpdateMsg:
		m.update = msg

		switch msg.status {
		case service.JobStatusCompleted:
			m.done = true
			return m, tea.Quit
		case service.JobStatusFailed:
			m.done = true
			m.err = fmt.Errorf("%s", msg.errMsg)
			return m, tea.Quit
		}

		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	var pct float64
	if m.maxPages > 0 {
		pct = float64(m.update.indexed) / float64(m.maxPages)
		if pct > 1 {
			pct = 1
		}
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.update.status))
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d visited, %d indexed, %d chunks", m.update.visited, m.update.indexed, m.update.chunks)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to stop watching")

	return fmt.Sprintf("%s %s %s\n%s\n", status, progressBar, counts, hint)
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nCrawl %s continues in background.\nUse 'studysearch jobs' to check status.\n", m.jobID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Crawl failed: %s\n", m.err))
	}

	output := m.theme.completedStyle().Render("✓ Crawl completed") + "\n"
	output += fmt.Sprintf("  %d visited, %d indexed, %d chunks\n", m.update.visited, m.update.indexed, m.update.chunks)
	return output
}

// pollJob reads the current job state from the manager.
func (m progressModel) pollJob() tea.Cmd {
	return func() tea.Msg {
		job := m.jobs.GetJob(m.jobID)
		if job == nil {
			return jobUpdateMsg{status: service.JobStatusFailed, errMsg: "job not found"}
		}
		status, visited, indexed, chunks := job.Snapshot()
		update := jobUpdateMsg{status: status, visited: visited, indexed: indexed, chunks: chunks}
		if status == service.JobStatusFailed {
			update.errMsg = job.Error
		}
		return update
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// RunJobProgress runs the interactive progress UI for a crawl job.
// Returns nil on success or Ctrl+C, the job error on failure.
func RunJobProgress(jobs *service.JobManager, jobID string) error {
	model := newProgressModel(jobs, jobID, cfg.MaxPages)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(progressModel); ok {
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}

	return nil
}
