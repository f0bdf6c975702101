package tui

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/acetylkin/internal/config"
	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/kinetics"
	"github.com/san-kum/acetylkin/internal/metrics"
	"github.com/san-kum/acetylkin/internal/params"
	"github.com/san-kum/acetylkin/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

var modelInfo = map[string]string{
	kinetics.AcetylCoA:      "Acetyl-CoA pool",
	kinetics.OneSiteUncorr:  "one site, fixed pool",
	kinetics.OneSite:        "one site",
	kinetics.TwoSitesUncorr: "two sites, fixed pool",
	kinetics.TwoSites:       "two sites",
}

const (
	durationKey = "duration"
	playbackLen = 240
)

type state int

const (
	stateMenu state = iota
	stateConfig
	stateSim
)

type model struct {
	state    state
	cursor   int
	models   []string
	selected string

	params      map[string]float64
	paramNames  []string
	paramCursor int
	editing     bool
	editBuf     string

	running    bool
	paused     bool
	speed      float64
	result     *sim.Result
	err        error
	frame      float64
	focus      int
	stateNames []string

	width  int
	height int
}

func NewInteractiveApp() *model {
	return &model{
		state:  stateMenu,
		models: kinetics.Presets(),
		params: map[string]float64{},
		speed:  1.0,
		width:  80,
		height: 24,
	}
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim || !m.running {
			return m, nil
		}
		if !m.paused {
			m.advance()
		}
		if m.running {
			return m, tick()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.models)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.models[m.cursor]
		m.state = stateConfig
		m.paramCursor = 0
		m.setParamsForModel()
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			if _, err := fmt.Sscanf(m.editBuf, "%g", &val); err == nil && val >= 0 {
				m.params[m.paramNames[m.paramCursor]] = val
			}
			m.editing = false
			m.editBuf = ""
		case "esc":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.paramNames)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing = true
		m.editBuf = fmt.Sprintf("%g", m.params[m.paramNames[m.paramCursor]])
	case "s":
		m.start()
		m.state = stateSim
		return m, tea.Batch(tea.ClearScreen, tick())
	case "left", "h":
		m.scaleParam(0.9)
	case "right", "l":
		m.scaleParam(1.1)
	}
	return m, nil
}

// scaleParam nudges the selected value multiplicatively; rate constants
// span orders of magnitude.
func (m *model) scaleParam(f float64) {
	name := m.paramNames[m.paramCursor]
	v := m.params[name]
	if v == 0 {
		v = 0.01
	}
	m.params[name] = v * f
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.running = false
		m.state = stateMenu
		m.reset()
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.frame = 0
		m.paused = false
		if !m.running && m.result != nil {
			m.running = true
			return m, tick()
		}
	case "c":
		m.running = false
		m.state = stateConfig
		m.reset()
		return m, tea.ClearScreen
	case "tab":
		if len(m.stateNames) > 0 {
			m.focus = (m.focus + 1) % len(m.stateNames)
		}
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "0":
		m.speed = 1.0
	}
	return m, nil
}

func (m *model) setParamsForModel() {
	m.params = map[string]float64{durationKey: config.DefaultDuration}
	preset := config.GetPreset(m.selected, config.DefaultPreset)
	names := preset.Names()
	sort.Strings(names)
	for _, name := range names {
		m.params[name] = preset[name].Value
	}
	m.paramNames = append(names, durationKey)
}

func (m model) paramSet() params.Set {
	p := params.NewSet()
	for _, name := range m.paramNames {
		if name == durationKey {
			continue
		}
		p.Add(params.New(name, m.params[name]))
	}
	return p
}

// start integrates the whole run up front; the view then replays it.
func (m *model) start() {
	m.reset()
	net, err := kinetics.Lookup(m.selected)
	if err != nil {
		m.err = err
		return
	}
	m.stateNames = net.StateNames()

	cfg := config.DefaultConfig()
	cfg.Model = m.selected
	x0, err := cfg.GetInitState(net)
	if err != nil {
		m.err = err
		return
	}

	s := sim.New(net, m.paramSet())
	sys, err := s.System()
	if err != nil {
		m.err = err
		return
	}
	for _, metric := range metrics.Standard(sys) {
		s.AddMetric(metric)
	}

	simCfg := sim.DefaultConfig()
	simCfg.Duration = m.params[durationKey]
	simCfg.Points = playbackLen
	m.result, m.err = s.Run(context.Background(), x0, simCfg)
	m.running = m.result != nil
}

func (m *model) reset() {
	m.result = nil
	m.err = nil
	m.frame = 0
	m.focus = 0
	m.paused = false
	m.running = false
}

func (m *model) advance() {
	if m.result == nil {
		m.running = false
		return
	}
	m.frame += m.speed
	if last := float64(m.result.Trajectory.Len() - 1); m.frame >= last {
		m.frame = last
		m.running = false
	}
}

func (m model) current() (dynamo.State, float64, int) {
	if m.result == nil || m.result.Trajectory.Len() == 0 {
		return nil, 0, 0
	}
	i := int(m.frame)
	if i >= m.result.Trajectory.Len() {
		i = m.result.Trajectory.Len() - 1
	}
	return m.result.Trajectory.States[i], m.result.Trajectory.Times[i], i
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.viewSim()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("          " + cyan.Render("a c e t y l k i n") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.models {
		desc := modelInfo[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-28s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-28s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter configure   q quit") + "\n")

	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(m.selected) + "  " + dim.Render(modelInfo[m.selected]) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 30)) + "\n\n")

	for i, name := range m.paramNames {
		val := fmt.Sprintf("%10.4g", m.params[name])
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"▋")
		}
		if i == m.paramCursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-10s", name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-10s", name)) + dim.Render(val) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select  ←→ scale  enter edit  s start  esc back") + "\n")

	return b.String()
}

func (m model) viewSim() string {
	var b strings.Builder

	if m.result == nil {
		if m.err != nil {
			b.WriteString("\n   " + red.Render("error: "+m.err.Error()) + "\n")
		}
		b.WriteString("\n" + dim.Render("   c config  q quit") + "\n")
		return b.String()
	}

	x, t, idx := m.current()
	duration := m.params[durationKey]

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	switch {
	case m.paused:
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	case !m.running:
		statusIcon = dim.Render("■")
		statusText = dim.Render("done")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render(m.selected), statusText, dim.Render(fmt.Sprintf("×%g", m.speed))))

	progress := 0.0
	if duration > 0 {
		progress = math.Min(t/duration, 1)
	}
	width := 36
	filled := int(progress * float64(width))
	timeStr := fmt.Sprintf("%.1f/%.0f min", t, duration)
	progressBar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", width-filled))
	b.WriteString(fmt.Sprintf("   %s %s\n\n", progressBar, dim.Render(timeStr)))

	peak := 0.0
	for _, s := range m.result.Trajectory.States {
		for _, v := range s {
			peak = math.Max(peak, v)
		}
	}
	barW := m.width - 40
	if barW < 20 {
		barW = 20
	}
	for i, v := range x {
		label := fmt.Sprintf("%-14s", m.stateNames[i])
		if i == m.focus {
			label = white.Render(label)
		} else {
			label = dim.Render(label)
		}
		b.WriteString(fmt.Sprintf("   %s %s %s\n", label, green.Render(bar(v, peak, barW, "█", " ")), white.Render(fmt.Sprintf("%.4f", v))))
	}

	if idx > 0 && m.focus < len(m.stateNames) {
		col := m.result.Trajectory.Column(m.focus)[:idx+1]
		b.WriteString(fmt.Sprintf("\n   %s %s\n", dim.Render(m.stateNames[m.focus]), cyan.Render(sparkline(col, 40))))
	}

	if !m.running && len(m.result.Metrics) > 0 {
		names := make([]string, 0, len(m.result.Metrics))
		for name := range m.result.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("\n")
		for _, name := range names {
			b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render(fmt.Sprintf("%-18s", name)), magenta.Render(fmt.Sprintf("%.6g", m.result.Metrics[name]))))
		}
	}
	if m.err != nil {
		b.WriteString("\n   " + red.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  tab state  r replay  c config  q quit") + "\n")

	return b.String()
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

func RunInteractive() error {
	p := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
