package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/acetylkin/internal/export"
	"github.com/san-kum/acetylkin/internal/storage"
)

// browser lists stored runs and shows the report and trajectory plot of
// the selected one.
type browser struct {
	store  *storage.Store
	runs   []storage.RunMetadata
	cursor int
	detail string
	open   bool
	err    error
	width  int
	height int
}

func NewBrowser(store *storage.Store) (*browser, error) {
	runs, err := store.List()
	if err != nil {
		return nil, err
	}
	// newest first
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	return &browser{store: store, runs: runs, width: 80, height: 24}, nil
}

func (b browser) Init() tea.Cmd { return nil }

func (b browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return b, tea.Quit
		case "esc", "backspace":
			b.open = false
		case "up", "k":
			if !b.open && b.cursor > 0 {
				b.cursor--
			}
		case "down", "j":
			if !b.open && b.cursor < len(b.runs)-1 {
				b.cursor++
			}
		case "enter", " ":
			if len(b.runs) > 0 && !b.open {
				b.detail, b.err = b.render(b.runs[b.cursor])
				b.open = true
			}
		}
	}
	return b, nil
}

func (b browser) render(meta storage.RunMetadata) (string, error) {
	var sb strings.Builder
	if report, err := b.store.LoadReport(meta.ID); err == nil {
		sb.WriteString(report)
	} else {
		for _, name := range meta.Params.Names() {
			sb.WriteString(fmt.Sprintf("    %-8s %.6g\n", name+":", meta.Params[name].Value))
		}
		for name, v := range meta.Metrics {
			if v != nil {
				sb.WriteString(fmt.Sprintf("    %-18s %.6g\n", name, *v))
			}
		}
	}

	traj, err := b.store.LoadTrajectory(meta.ID)
	if err != nil {
		return sb.String(), err
	}
	width := b.width - 20
	if width < 30 {
		width = 30
	}
	plot, err := export.ASCII(traj, meta.Model, 12, width)
	if err != nil {
		return sb.String(), err
	}
	sb.WriteString("\n" + plot + "\n")
	return sb.String(), nil
}

func (b browser) View() string {
	var sb strings.Builder
	sb.WriteString("\n   " + cyan.Render("stored runs") + dim.Render(fmt.Sprintf("  %s", b.store.Dir())) + "\n\n")

	if b.open {
		run := b.runs[b.cursor]
		sb.WriteString("   " + white.Render(run.ID) + "  " + dim.Render(run.Timestamp.Format("2006-01-02 15:04:05")) + "\n\n")
		for _, line := range strings.Split(b.detail, "\n") {
			sb.WriteString("   " + line + "\n")
		}
		if b.err != nil {
			sb.WriteString("   " + red.Render(b.err.Error()) + "\n")
		}
		sb.WriteString("\n" + dim.Render("   esc back  q quit") + "\n")
		return sb.String()
	}

	if len(b.runs) == 0 {
		sb.WriteString(dim.Render("   no runs yet") + "\n")
	}
	for i, run := range b.runs {
		line := fmt.Sprintf("%-32s %-9s %-16s %s", run.ID, run.Kind, run.Condition, run.Timestamp.Format("01-02 15:04"))
		if run.Fit != nil && run.Fit.RedChi != nil {
			line += fmt.Sprintf("  redchi=%.3g", *run.Fit.RedChi)
		}
		if i == b.cursor {
			sb.WriteString("   " + cyan.Render("▸ ") + white.Render(line) + "\n")
		} else {
			sb.WriteString("     " + dim.Render(line) + "\n")
		}
	}
	sb.WriteString("\n" + dim.Render("   ↑↓ select  enter open  q quit") + "\n")
	return sb.String()
}

func RunBrowser(store *storage.Store) error {
	b, err := NewBrowser(store)
	if err != nil {
		return err
	}
	p := tea.NewProgram(b, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
