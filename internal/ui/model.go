package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the bubbletea model for the live scraping display.
type Model struct {
	platformID string
	total      int
	quitting   bool

	// Active entries (in progress) - map for fast lookup, slice for stable order
	active      map[string]*activeEntry
	activeOrder []string

	// Counts
	processed int
	scraped   int
	mediaOnly int
	skipped   int
	notFound  int
	failed    int

	startTime time.Time

	spinner  spinner.Model
	progress progress.Model

	events   <-chan Event
	getStats StatsFunc
}

type activeEntry struct {
	name         string
	mediaTotal   int
	mediaDone    int
	mediaFailed  int
	mediaMissing int
	currentMedia string
	startTime    time.Time
}

var (
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	scrapedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	notFoundStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	skippedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	dotDoneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dotFailedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dotMissingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dotPendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// NewModel creates the display for one platform's run.
func NewModel(platformID string, total int, events <-chan Event, getStats StatsFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	p := progress.New(progress.WithDefaultGradient())

	return Model{
		platformID: platformID,
		total:      total,
		startTime:  time.Now(),
		spinner:    s,
		progress:   p,
		active:     make(map[string]*activeEntry),
		events:     events,
		getStats:   getStats,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForEvent(m.events),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case Event:
		var printCmd tea.Cmd
		m, printCmd = m.handleEvent(msg)

		// A zero total means "unknown"; the display then runs until the
		// event channel closes.
		if m.total > 0 && m.processed >= m.total {
			return m, tea.Sequence(printCmd, tea.Quit)
		}
		return m, tea.Batch(printCmd, waitForEvent(m.events))

	case doneMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleEvent(ev Event) (Model, tea.Cmd) {
	switch ev.Type {
	case EventStarted:
		m.active[ev.Entry] = &activeEntry{
			name:       ev.Entry,
			mediaTotal: ev.MediaTotal,
			startTime:  time.Now(),
		}
		m.activeOrder = append(m.activeOrder, ev.Entry)

	case EventProgress:
		if entry, ok := m.active[ev.Entry]; ok {
			entry.mediaDone = ev.MediaDone
			entry.mediaFailed = ev.MediaFailed
			entry.mediaMissing = ev.MediaMissing
			entry.currentMedia = ev.CurrentMedia
		}

	case EventScraped, EventMediaOnly:
		m.processed++
		if ev.Type == EventScraped {
			m.scraped++
		} else {
			m.mediaOnly++
		}
		duration := m.finish(ev.Entry)
		label := fmt.Sprintf("%d media", ev.MediaDone)
		if ev.CacheHit {
			label += " (cached)"
		}
		line := fmt.Sprintf(" %s  %-42s %s  %s",
			scrapedStyle.Render("✓"),
			truncate(ev.Entry, 42),
			renderDots(ev.MediaDone, ev.MediaFailed, ev.MediaMissing, ev.MediaTotal),
			dimStyle.Render(label+"  "+duration))
		return m, tea.Println(line)

	case EventSkipped:
		m.processed++
		m.skipped++
		duration := m.finish(ev.Entry)
		line := fmt.Sprintf(" %s  %-42s %s  %s",
			skippedStyle.Render("⊘"),
			truncate(ev.Entry, 42),
			dimStyle.Render("skipped"),
			dimStyle.Render(duration))
		return m, tea.Println(line)

	case EventNotFound:
		m.processed++
		m.notFound++
		duration := m.finish(ev.Entry)
		line := fmt.Sprintf(" %s  %-42s %s  %s",
			notFoundStyle.Render("✗"),
			truncate(ev.Entry, 42),
			dimStyle.Render("not found"),
			dimStyle.Render(duration))
		return m, tea.Println(line)

	case EventFailed:
		m.processed++
		m.failed++
		duration := m.finish(ev.Entry)
		errMsg := "failed"
		if ev.Err != nil {
			errMsg = truncate(ev.Err.Error(), 30)
		}
		line := fmt.Sprintf(" %s  %-42s %s  %s",
			failedStyle.Render("!"),
			truncate(ev.Entry, 42),
			failedStyle.Render(errMsg),
			dimStyle.Render(duration))
		return m, tea.Println(line)

	case EventMessage:
		return m, tea.Println(dimStyle.Render(" " + ev.Message))
	}

	return m, nil
}

// finish removes an entry from the active set and returns its duration.
func (m *Model) finish(name string) string {
	entry := m.active[name]
	delete(m.active, name)
	m.activeOrder = removeFromOrder(m.activeOrder, name)
	if entry == nil {
		return ""
	}
	return fmtDuration(time.Since(entry.startTime))
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	for _, name := range m.activeOrder {
		entry := m.active[name]
		if entry == nil {
			continue
		}
		dots := renderDots(entry.mediaDone, entry.mediaFailed, entry.mediaMissing, entry.mediaTotal)
		elapsed := fmtDuration(time.Since(entry.startTime))
		var status string
		if entry.currentMedia != "" {
			status = fmt.Sprintf("  fetching %s  %s", entry.currentMedia, elapsed)
		} else {
			status = fmt.Sprintf("  looking up  %s", elapsed)
		}
		b.WriteString(fmt.Sprintf(" %s %-42s %s%s\n",
			m.spinner.View(),
			truncate(entry.name, 42),
			dots,
			dimStyle.Render(status)))
	}

	b.WriteString(strings.Repeat("━", 60) + "\n")

	pct := 0.0
	if m.total > 0 {
		pct = float64(m.processed) / float64(m.total)
	}
	b.WriteString(fmt.Sprintf(" %s  ", m.platformID))
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString(fmt.Sprintf("  %d/%d (%.0f%%)\n\n", m.processed, m.total, pct*100))

	b.WriteString(fmt.Sprintf(" Scraped: %s    Media-only: %s    Skipped: %s    Not found: %s    Failed: %s\n",
		scrapedStyle.Render(fmt.Sprintf("%d", m.scraped)),
		scrapedStyle.Render(fmt.Sprintf("%d", m.mediaOnly)),
		skippedStyle.Render(fmt.Sprintf("%d", m.skipped)),
		notFoundStyle.Render(fmt.Sprintf("%d", m.notFound)),
		failedStyle.Render(fmt.Sprintf("%d", m.failed)),
	))

	elapsed := time.Since(m.startTime).Round(time.Second)
	if m.getStats != nil {
		stats := m.getStats()
		quota := ""
		if stats.DailyCap > 0 {
			quota = fmt.Sprintf("    Quota: %d/%d", stats.DailyUsed, stats.DailyCap)
		}
		backoff := ""
		if stats.RateExceeded > 0 {
			backoff = fmt.Sprintf("    429s: %d (waited %s)", stats.RateExceeded, stats.TotalWait.Round(time.Second))
		}
		b.WriteString(fmt.Sprintf(" Elapsed: %s    API: %d calls (~%.1f/s)%s%s\n",
			elapsed, stats.APICalls, stats.CallsPerSec, quota, backoff))
	} else {
		b.WriteString(fmt.Sprintf(" Elapsed: %s\n", elapsed))
	}

	return b.String()
}

type doneMsg struct{}

func waitForEvent(ch <-chan Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return doneMsg{}
		}
		return ev
	}
}

func renderDots(done, failed, missing, total int) string {
	var b strings.Builder
	rendered := 0

	for i := 0; i < done && rendered < total; i++ {
		b.WriteString(dotDoneStyle.Render("●"))
		rendered++
	}
	for i := 0; i < failed && rendered < total; i++ {
		b.WriteString(dotFailedStyle.Render("⊗"))
		rendered++
	}
	for i := 0; i < missing && rendered < total; i++ {
		b.WriteString(dotMissingStyle.Render("○"))
		rendered++
	}
	for rendered < total {
		b.WriteString(dotPendingStyle.Render("◌"))
		rendered++
	}

	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func removeFromOrder(order []string, name string) []string {
	for i, n := range order {
		if n == name {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

func fmtDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
