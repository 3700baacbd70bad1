package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"

	"github.com/san-kum/balancer/internal/config"
	"github.com/san-kum/balancer/internal/control"
	"github.com/san-kum/balancer/internal/dynamo"
	"github.com/san-kum/balancer/internal/experiment"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 300
	// metresAcross is how much actuator travel the canvas shows.
	metresAcross = 8.0
	pushOmega    = 0.5
)

type TickMsg time.Time

// Model steps an experiment in real time and renders it.
type Model struct {
	cfg *config.Config
	reg *experiment.Registry
	log *zap.Logger

	exp           *experiment.Experiment
	fps           int
	stepsPerFrame int
	canvas        *Canvas
	running       bool
	err           error

	last     control.Decision
	lastErr  error
	angles   []float64
	commands []float64

	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int
	showHelp      bool
}

func NewModel(cfg *config.Config, reg *experiment.Registry, fps int, log *zap.Logger) (Model, error) {
	if fps <= 0 {
		fps = 30
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := Model{
		cfg:    cfg,
		reg:    reg,
		log:    log.Named("viz"),
		fps:    fps,
		canvas: NewCanvas(width, height),
	}
	m.stepsPerFrame = max(1, int(math.Round(1/(float64(fps)*cfg.Dt))))
	if err := m.rebuild(); err != nil {
		return Model{}, err
	}

	m.initialParams = make(map[string]float64, len(m.params))
	for k, v := range m.params {
		m.initialParams[k] = v
	}
	return m, nil
}

// rebuild starts a fresh experiment from the config, keeping the current
// plant parameters.
func (m *Model) rebuild() error {
	cfg := m.cfg.Clone()
	if len(m.params) > 0 {
		cfg.PlantParams = make(map[string]float64, len(m.params))
		for k, v := range m.params {
			cfg.PlantParams[k] = v
		}
	}

	exp := experiment.New(cfg, m.log)
	exp.SetRecording(false)
	if err := exp.Setup(m.reg); err != nil {
		return err
	}

	m.exp = exp
	m.running = true
	m.err = nil
	m.lastErr = nil
	m.last = control.Decision{}
	m.angles = m.angles[:0]
	m.commands = m.commands[:0]

	if c, ok := exp.World().System().(dynamo.Configurable); ok {
		m.params = c.GetParams()
	}
	m.paramKeys = m.paramKeys[:0]
	for k := range m.params {
		m.paramKeys = append(m.paramKeys, k)
	}
	sort.Strings(m.paramKeys)
	if m.selected >= len(m.paramKeys) {
		m.selected = 0
	}
	return nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.err == nil {
				m.running = !m.running
			}
		case "r":
			if err := m.rebuild(); err != nil {
				m.err = err
			}
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "left", "h":
			m.exp.World().Push(-pushOmega)
		case "right", "l":
			m.exp.World().Push(pushOmega)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

// step advances one frame worth of engine ticks.
func (m *Model) step() {
	world, driver := m.exp.World(), m.exp.Driver()
	for i := 0; i < m.stepsPerFrame; i++ {
		dec, err := driver.Tick(world.Time())
		if err != nil {
			m.lastErr = err
		} else {
			m.last = dec
			m.angles = appendCapped(m.angles, dec.State.PendulumAngle)
			m.commands = appendCapped(m.commands, dec.Command)
		}
		if err := world.Step(); err != nil {
			m.err = err
			m.running = false
			m.log.Warn("live run stopped", zap.Error(err))
			return
		}
	}
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	newVal := m.params[key] * factor
	if c, ok := m.exp.World().System().(dynamo.Configurable); ok {
		if err := c.SetParam(key, newVal); err != nil {
			m.log.Debug("param rejected", zap.String("param", key), zap.Error(err))
			return
		}
	}
	m.params[key] = newVal
}

// draw renders the actuator on its rail and the pendulum above it.
func (m *Model) draw() {
	m.canvas.Clear()
	pw, ph := m.canvas.PixelSize()
	x := m.exp.World().State()

	railY := ph - 10
	m.canvas.DrawLine(0, railY+4, pw-1, railY+4)

	scale := float64(pw) / metresAcross
	ax := pw/2 + int(math.Round(x[0]*scale))
	ax = max(6, min(ax, pw-7))
	m.canvas.FillRect(ax-6, railY, ax+6, railY+3)

	length := float64(ph) * 0.6
	px := ax + int(math.Round(length*math.Sin(x[2])))
	py := railY - int(math.Round(length*math.Cos(x[2])))
	m.canvas.DrawLine(ax, railY, px, py)
	m.canvas.Disc(px, py, 2)
}

func (m Model) status(st styles) string {
	switch {
	case m.err != nil:
		return st.bad.Render("STOPPED")
	case !m.running:
		return st.warn.Render("PAUSED")
	case m.exp.World().Asleep():
		return st.pending.Render("ASLEEP")
	}
	return st.ok.Render("RUNNING")
}

func (m Model) View() string {
	st := stylesFor(CurrentTheme)
	m.draw()
	canvasView := st.canvas.Render(m.canvas.String())

	cfg := m.exp.Config()
	res := m.exp.Driver().Result()

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(cfg.Plant)+" / "+cfg.Policy.Kind) + "\n")
	s.WriteString(m.status(st) + "\n\n")

	if len(m.angles) > 1 {
		chart := asciigraph.Plot(m.angles, asciigraph.Height(5), asciigraph.Width(32),
			asciigraph.Caption("angle ("+cfg.Calibration.Unit+")"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	s.WriteString(st.label.Render("Command") + Sparkline(m.commands, 30) + "\n\n")

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.exp.World().Time()))
	row("Angle", fmt.Sprintf("%+.3f", m.last.State.PendulumAngle))
	row("Command", fmt.Sprintf("%+.3f (raw %+.3f)", m.last.Command, m.last.Raw))
	row("Ticks", fmt.Sprintf("%d (%d skipped)", res.Ticks, res.Skipped))

	satFrac := 0.0
	if res.Ticks > 0 {
		satFrac = float64(res.Saturated) / float64(res.Ticks)
	}
	s.WriteString(st.label.Render("Saturated") + ProgressBar(st, satFrac, 20) + "\n")
	if v, ok := res.Metrics["stability"]; ok {
		row("Stability", fmt.Sprintf("%.1f%%", v*100))
	}
	if m.lastErr != nil {
		s.WriteString(st.pending.Render("last skip: "+m.lastErr.Error()) + "\n")
	}
	if m.err != nil {
		s.WriteString(st.bad.Render(m.err.Error()) + "\n")
	}

	s.WriteString("\nPLANT\n")
	if len(m.paramKeys) == 0 {
		s.WriteString(st.label.Render("  (none)") + "\n")
	}
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-12s %.3f", k, m.params[k])
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.label.Render(line) + "\n")
		}
	}

	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit\n←→:Push ↑↓:Tune ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Restart the experiment   ║
║  Q        - Quit                     ║
║  Tab      - Cycle plant parameters   ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  Left/H   - Push pendulum left       ║
║  Right/L  - Push pendulum right      ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Run opens the live view full screen until the user quits.
func Run(cfg *config.Config, reg *experiment.Registry, fps int, log *zap.Logger) error {
	m, err := NewModel(cfg, reg, fps, log)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
