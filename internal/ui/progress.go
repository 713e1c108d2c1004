package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/semindex/semindex/internal/index"
)

// IndexProgress displays a live view of an index run. On a TTY it runs a
// bubbletea program with a progress bar and throughput sparkline; otherwise
// it prints occasional plain lines suitable for logs and CI.
type IndexProgress struct {
	mu      sync.Mutex
	out     io.Writer
	plain   bool
	program *tea.Program
	done    chan struct{}
	started bool

	// plain-mode throttle
	lastLine time.Time
}

// NewIndexProgress builds a progress display for the given writer.
func NewIndexProgress(out io.Writer, project string, noColor bool) *IndexProgress {
	ip := &IndexProgress{
		out:   out,
		plain: noColor || DetectNoColor() || !IsTTY(out),
		done:  make(chan struct{}),
	}
	if !ip.plain {
		m := newProgressModel(project)
		opts := []tea.ProgramOption{}
		if f, ok := out.(*os.File); ok {
			opts = append(opts, tea.WithOutput(f))
		}
		ip.program = tea.NewProgram(m, opts...)
	}
	return ip
}

// Start launches the display. Plain mode needs no setup.
func (ip *IndexProgress) Start() {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	if ip.started || ip.plain {
		ip.started = true
		return
	}
	ip.started = true
	go func() {
		defer close(ip.done)
		_, _ = ip.program.Run()
	}()
}

// Report is the per-file progress callback for the index maintainer.
// Safe to call from the indexing goroutine.
func (ip *IndexProgress) Report(p index.Progress) {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	if ip.plain {
		// At most one line every half second, plus the final one.
		now := time.Now()
		if p.Done < p.Total && now.Sub(ip.lastLine) < 500*time.Millisecond {
			return
		}
		ip.lastLine = now
		fmt.Fprintf(ip.out, "indexing %d/%d %s\n", p.Done, p.Total, p.Path)
		return
	}
	if ip.program != nil {
		ip.program.Send(progressMsg(p))
	}
}

// Finish tears down the display and waits for the TUI to exit.
func (ip *IndexProgress) Finish() {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	if ip.plain || ip.program == nil || !ip.started {
		return
	}
	ip.program.Send(finishMsg{})
	select {
	case <-ip.done:
	case <-time.After(2 * time.Second):
		ip.program.Kill()
	}
}

type progressMsg index.Progress
type finishMsg struct{}
type sampleMsg time.Time

// progressModel is the bubbletea model behind the TTY display.
type progressModel struct {
	project string
	styles  Styles
	spinner spinner.Model
	bar     progress.Model
	width   int

	current index.Progress
	start   time.Time

	// throughput samples, one per sampling tick
	samples   []float64
	lastDone  int
	quitting  bool
	finishing bool
}

func newProgressModel(project string) *progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	b := progress.New(
		progress.WithSolidFill(ColorAccent),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &progressModel{
		project: project,
		styles:  DefaultStyles(),
		spinner: s,
		bar:     b,
		width:   80,
		start:   time.Now(),
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, sampleCmd())
}

func sampleCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return sampleMsg(t)
	})
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 24
		if m.bar.Width < 20 {
			m.bar.Width = 20
		}

	case progressMsg:
		m.current = index.Progress(msg)
		return m, nil

	case finishMsg:
		m.finishing = true
		return m, tea.Quit

	case sampleMsg:
		m.samples = append(m.samples, float64(m.current.Done-m.lastDone))
		if len(m.samples) > 40 {
			m.samples = m.samples[len(m.samples)-40:]
		}
		m.lastDone = m.current.Done
		return m, sampleCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if m.quitting {
		return "cancelled\n"
	}
	if m.finishing {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render("Indexing "+m.project) + "\n\n")

	ratio := 0.0
	if m.current.Total > 0 {
		ratio = float64(m.current.Done) / float64(m.current.Total)
	}
	sb.WriteString(fmt.Sprintf("  %s %s %d/%d\n",
		m.spinner.View(), m.bar.ViewAs(ratio), m.current.Done, m.current.Total))

	elapsed := time.Since(m.start).Round(time.Second)
	rate := 0.0
	if secs := time.Since(m.start).Seconds(); secs > 0 {
		rate = float64(m.current.Done) / secs
	}
	sb.WriteString("  " + m.styles.Label.Render(
		fmt.Sprintf("%.1f files/s  elapsed %s", rate, elapsed)) + "\n")

	if len(m.samples) > 1 {
		sb.WriteString("  " + m.styles.Sparkline.Render(Sparkline(m.samples)) + "\n")
	}

	if m.current.Path != "" {
		path := m.current.Path
		if len(path) > m.width-4 && m.width > 7 {
			path = "…" + path[len(path)-(m.width-5):]
		}
		sb.WriteString("  " + m.styles.Dim.Render(path) + "\n")
	}

	return sb.String()
}
