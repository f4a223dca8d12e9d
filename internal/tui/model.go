// Package tui is the interactive terminal front end: an algorithm menu and a
// live braille canvas driven by an anim.Controller.
package tui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/anim"
	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/experiment"
	"github.com/san-kum/mlviz/internal/export"
	"github.com/san-kum/mlviz/internal/log"
	"github.com/san-kum/mlviz/internal/metrics"
	"github.com/san-kum/mlviz/internal/panel"
	"github.com/san-kum/mlviz/internal/render"
	"go.uber.org/zap"
)

const (
	frameRate     = 30
	lossHistory   = 120
	maxGIFFrames  = 300
	gifScale      = 4
	defaultWidth  = 120
	defaultHeight = 32
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

type screen int

const (
	screenMenu screen = iota
	screenSim
)

type Options struct {
	Registry *experiment.Registry
	// Config seeds every session. A non-empty Algorithm skips the menu;
	// Params only apply to that algorithm.
	Config experiment.Config
	// OutDir receives recorded GIFs.
	OutDir string
}

// Model is the bubbletea model. The running session is held by pointer so
// value copies made by bubbletea share one controller.
type Model struct {
	opts     Options
	descs    []experiment.Descriptor
	screen   screen
	cursor   int
	pending  string
	width    int
	height   int
	sess     *session
	selected int
	showHelp bool
	message  string
}

func New(opts Options) Model {
	if opts.Registry == nil {
		opts.Registry = experiment.NewRegistry()
	}
	if opts.Config.Overlay.Theme.Name == "" {
		opts.Config.Overlay = render.DefaultOverlay()
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	m := Model{
		opts:    opts,
		descs:   opts.Registry.Descriptors(),
		pending: opts.Config.Algorithm,
	}
	for i, d := range m.descs {
		if d.Name == m.pending {
			m.cursor = i
		}
	}
	return m
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.pending != "" {
			name := m.pending
			m.pending = ""
			m.launch(name)
		}
		return m, nil
	case tea.KeyMsg:
		if m.screen == screenSim {
			return m.simKey(msg)
		}
		return m.menuKey(msg)
	case tea.MouseMsg:
		if m.screen == screenSim && msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.click(msg.X, msg.Y)
		}
		return m, nil
	case TickMsg:
		if m.sess != nil {
			m.sess.advance(time.Time(msg))
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.descs)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.descs) > 0 {
			m.launch(m.descs[m.cursor].Name)
		}
	}
	return m, nil
}

func (m Model) simKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.sess
	m.message = ""
	var err error
	switch msg.String() {
	case "q", "ctrl+c":
		m.Close()
		return m, tea.Quit
	case "esc", "m":
		m.Close()
		m.screen = screenMenu
		return m, nil
	case " ":
		err = s.panel.Toggle()
		if errors.Is(err, engine.ErrFinished) {
			m.message = "finished, press r to replay"
			err = nil
		}
	case "r":
		err = s.panel.Reset()
	case "s":
		s.seed++
		err = s.ctrl.Reseed(s.seed)
	case "n":
		err = s.ctrl.Step()
		if errors.Is(err, engine.ErrFinished) {
			err = nil
		}
	case "tab":
		if n := len(s.panel.Sliders()); n > 0 {
			m.selected = (m.selected + 1) % n
		}
	case "up", "k":
		err = m.nudge(1)
	case "down", "j":
		err = m.nudge(-1)
	case "+", "=":
		_, err = s.panel.Nudge(panel.SpeedSpec.Name, 1)
	case "-", "_":
		_, err = s.panel.Nudge(panel.SpeedSpec.Name, -1)
	case "t":
		ov := s.overlay
		ov.Theme = nextTheme(ov.Theme.Name)
		s.setOverlay(ov)
	case "1":
		ov := s.overlay
		ov.Grid = !ov.Grid
		s.setOverlay(ov)
	case "2":
		ov := s.overlay
		ov.Legend = !ov.Legend
		s.setOverlay(ov)
	case "3":
		ov := s.overlay
		ov.Labels = !ov.Labels
		s.setOverlay(ov)
	case "g":
		var path string
		path, err = s.toggleRecording(m.opts.OutDir)
		if path != "" {
			m.message = "saved " + path
		}
	case "?":
		m.showHelp = !m.showHelp
	}
	if err != nil {
		m.message = err.Error()
	}
	return m, nil
}

func (m *Model) nudge(steps int) error {
	sliders := m.sess.panel.Sliders()
	if m.selected >= len(sliders) {
		m.selected = 0
	}
	sl := sliders[m.selected]
	if !sl.Enabled {
		return errors.Wrapf(engine.ErrLocked, "%s is locked while playing", sl.Label)
	}
	_, err := m.sess.panel.Nudge(sl.Name, steps)
	return err
}

// click maps a terminal cell onto the centre of its braille block.
func (m *Model) click(x, y int) {
	col, row := x-canvasStyle.GetPaddingLeft(), y-canvasStyle.GetPaddingTop()
	if col < 0 || row < 0 || col >= m.sess.canvas.Cols || row >= m.sess.canvas.Rows {
		return
	}
	m.message = ""
	if err := m.sess.panel.Click(float64(col*2+1), float64(row*4+2)); err != nil {
		m.message = err.Error()
	}
}

func (m Model) canvasSize() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	cols := w - statsWidth - 2*canvasStyle.GetPaddingLeft() - 2
	rows := h - 2*canvasStyle.GetPaddingTop() - 1
	return max(cols, 24), max(rows, 8)
}

func (m *Model) launch(name string) {
	m.Close()
	desc, err := m.opts.Registry.Get(name)
	if err != nil {
		m.message = err.Error()
		return
	}
	cfg := m.opts.Config
	if cfg.Algorithm != name {
		cfg.Params = nil
	}
	cfg.Algorithm = name
	cols, rows := m.canvasSize()
	s, err := newSession(desc, cfg, cols, rows)
	if err != nil {
		m.message = err.Error()
		return
	}
	m.sess = s
	m.selected = 0
	m.message = ""
	m.screen = screenSim
}

// Close stops the running session, if any. A recording in progress is
// discarded.
func (m *Model) Close() {
	if m.sess == nil {
		return
	}
	m.sess.ctrl.Close()
	m.sess = nil
}

type session struct {
	desc     experiment.Descriptor
	ctrl     *anim.Controller
	panel    *panel.Panel
	sched    *anim.ManualScheduler
	canvas   *render.Braille
	trace    *metrics.Trace
	overlay  render.Overlay
	seed     int64
	lastFire time.Time
	rec      *recording
	logger   *zap.Logger
}

type recording struct {
	raster   *render.Raster
	renderer *render.Renderer
	gif      *export.Recorder
}

func newSession(desc experiment.Descriptor, cfg experiment.Config, cols, rows int) (*session, error) {
	s := &session{
		desc:    desc,
		sched:   anim.NewManualScheduler(),
		canvas:  render.NewBraille(cols, rows),
		overlay: cfg.Overlay,
		seed:    cfg.Seed,
		logger:  log.Logger().With(zap.String("algorithm", desc.Name)),
	}
	cfg.Width, cfg.Height = s.canvas.Size()
	exp := experiment.New(cfg)
	if err := exp.Setup(desc, s.canvas, s.sched, anim.ObserverFunc(s.capture)); err != nil {
		return nil, err
	}
	s.ctrl = exp.Controller()
	s.panel = panel.New(s.ctrl)
	s.trace = exp.Metrics()[0].(*metrics.Trace)
	return s, nil
}

// advance fires the scheduler once the effective interval has elapsed since
// the previous step.
func (s *session) advance(now time.Time) {
	st := s.ctrl.Status()
	if st.State != anim.Playing {
		s.lastFire = time.Time{}
		return
	}
	if s.lastFire.IsZero() {
		s.lastFire = now
		return
	}
	if now.Sub(s.lastFire) >= st.Interval {
		s.sched.Fire()
		s.lastFire = now
	}
}

func (s *session) setOverlay(ov render.Overlay) {
	s.overlay = ov
	if s.rec != nil {
		s.rec.renderer.Overlay = ov
	}
	s.ctrl.SetOverlay(ov)
}

// capture runs under the controller lock, so it only touches the
// simulation and the recording.
func (s *session) capture(st anim.Status) {
	if s.rec == nil || s.ctrl == nil {
		return
	}
	s.rec.renderer.Render(s.rec.raster, s.ctrl.Simulation())
	s.rec.gif.OnTick(st)
}

// toggleRecording starts a GIF recording, or stops the current one and
// writes it under dir. The returned path is empty when nothing was saved.
func (s *session) toggleRecording(dir string) (string, error) {
	if s.rec == nil {
		w, h := s.canvas.Size()
		raster := render.NewRaster(w, h)
		s.rec = &recording{
			raster:   raster,
			renderer: render.NewRenderer(s.overlay),
			gif:      export.NewRecorder(raster, s.ctrl.Status().Interval, maxGIFFrames, gifScale),
		}
		s.ctrl.Redraw()
		return "", nil
	}
	rec := s.rec
	s.rec = nil
	if rec.gif.Frames() == 0 {
		return "", nil
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%d.gif", s.desc.Name, time.Now().Unix()))
	if err := rec.gif.Save(path); err != nil {
		return "", errors.Wrap(err, "save recording")
	}
	s.logger.Info("recording saved", zap.String("path", path), zap.Int("frames", rec.gif.Frames()))
	return path, nil
}

func (m Model) View() string {
	if m.screen == screenMenu || m.sess == nil {
		return m.viewMenu()
	}
	main := lipgloss.JoinHorizontal(lipgloss.Top, m.viewCanvas(), m.viewStats())
	if m.showHelp {
		return helpBox + "\n\n" + main
	}
	return main
}

func (m Model) viewMenu() string {
	var b strings.Builder
	b.WriteString(menuTitle.Render("MLVIZ") + "\n\n")
	for i, d := range m.descs {
		line := fmt.Sprintf("%-20s %s", d.Name, d.Title)
		if i == m.cursor {
			b.WriteString(menuCursor.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + menuItem.Render(line) + "\n")
		}
	}
	if len(m.descs) > 0 {
		b.WriteString("\n" + menuSummary.Render(m.descs[m.cursor].Summary) + "\n")
	}
	if m.message != "" {
		b.WriteString("\n" + errorStyle.Render(m.message) + "\n")
	}
	b.WriteString(helpStyle.Render("↑↓:Select  Enter:Open  Q:Quit"))
	return menuPanel.Render(b.String())
}

func (m Model) viewCanvas() string {
	var out string
	m.sess.ctrl.View(func(render.Surface) {
		out = m.sess.canvas.Colorize(paint)
	})
	return canvasStyle.Render(strings.TrimRight(out, "\n"))
}

func (m Model) viewStats() string {
	s := m.sess
	st := s.ctrl.Status()
	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.ToUpper(s.desc.Title)) + "\n")

	status := statusStyle(st.State).Render(strings.ToUpper(st.State.String()))
	if s.rec != nil {
		status += "  " + statusRecording.Render(fmt.Sprintf("● REC %d", s.rec.gif.Frames()))
	}
	b.WriteString(status + "\n")

	if losses := tail(s.trace.Losses(), lossHistory); len(losses) > 1 {
		chart := asciigraph.Plot(losses, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Loss"))
		b.WriteString(graphStyle.Render(chart) + "\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString(labelStyle.Render("Iteration") + valueStyle.Render(fmt.Sprintf("%d", st.Iteration)) + "\n")
	b.WriteString(labelStyle.Render("Interval") + valueStyle.Render(st.Interval.String()) + "\n")
	if st.HasLoss {
		b.WriteString(labelStyle.Render("Loss") + valueStyle.Render(fmt.Sprintf("%.4f", st.Loss)) + "\n")
	}
	if st.Phase != "" {
		b.WriteString(labelStyle.Render("Phase") + valueStyle.Width(statsWidth-18).Render(st.Phase) + "\n")
	}

	b.WriteString("\nPARAMETERS\n")
	for i, sl := range s.panel.Sliders() {
		line := fmt.Sprintf("%-10s %s %g", sl.Name, bar(sl, 10), sl.Value)
		switch {
		case i == m.selected:
			b.WriteString(activeParamStyle.Render("> "+line) + "\n")
		case !sl.Enabled:
			b.WriteString("  " + lockedStyle.Render(line+" (locked)") + "\n")
		default:
			b.WriteString("  " + labelStyle.Width(0).Render(line) + "\n")
		}
	}

	msg := m.message
	if msg == "" {
		msg = s.panel.Message()
	}
	if msg != "" {
		b.WriteString("\n" + errorStyle.Render(msg) + "\n")
	}
	b.WriteString(helpStyle.Render("─────────────────────\nSP:Play R:Reset N:Step Q:Quit\nT:Theme G:Record ?:Help M:Menu"))
	return statsStyle.Render(b.String())
}

const helpBox = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Play/Pause               ║
║  N        - Single step              ║
║  R        - Reset                    ║
║  S        - Reset with new data      ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter       ║
║  Down/J   - Decrease parameter       ║
║  + / -    - Faster / slower          ║
║  Click    - Place the query point    ║
║  1 2 3    - Grid / legend / labels   ║
║  T        - Cycle themes             ║
║  G        - Toggle GIF recording     ║
║  M / Esc  - Back to the menu         ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

func bar(sl panel.Slider, width int) string {
	ratio := 0.0
	if span := sl.Max - sl.Min; span > 0 {
		ratio = math.Max(0, math.Min(1, (sl.Value-sl.Min)/span))
	}
	filled := int(math.Round(ratio * float64(width)))
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}

// tail keeps the last n finite values.
func tail(xs []float64, n int) []float64 {
	out := make([]float64, 0, n)
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	if len(out) > n {
		return out[len(out)-n:]
	}
	return out
}

// Run starts the full-screen program and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if m, ok := final.(Model); ok {
		m.Close()
	}
	return errors.Wrap(err, "tui")
}
