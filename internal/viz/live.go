package viz

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/collide"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/forces"
	"github.com/san-kum/partsim/internal/physics"
)

const (
	width           = 72
	height          = 24
	historyCapacity = 300
	frameRate       = 30

	// maxStepsPerTick bounds catch-up work after a stall.
	maxStepsPerTick = 200
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model drives a scene in real time. Elapsed wall time, scaled by speed,
// is consumed in fixed dt steps.
type Model struct {
	scene     dynamo.Scene
	observers []dynamo.Observer
	logger    *slog.Logger

	dt, speed float64
	pending   float64
	lastTick  time.Time

	canvas *Canvas
	camera *Camera

	running  bool
	showHelp bool
	message  string

	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int

	energyHistory []float64
	wasHalted     bool
}

// NewModel wraps scene for live display, stepping it with dt.
func NewModel(scene dynamo.Scene, dt float64, logger *slog.Logger, observers ...dynamo.Observer) Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := Model{
		scene:         scene,
		observers:     observers,
		logger:        logger,
		dt:            dt,
		speed:         1,
		canvas:        NewCanvas(width, height),
		camera:        cameraFor(scene),
		running:       true,
		params:        make(map[string]float64),
		initialParams: make(map[string]float64),
		energyHistory: make([]float64, 0, historyCapacity),
	}
	if c, ok := scene.(dynamo.Configurable); ok {
		for k, v := range c.GetParams() {
			m.params[k] = v
			m.initialParams[k] = v
			m.paramKeys = append(m.paramKeys, k)
		}
		sort.Strings(m.paramKeys)
	}
	return m
}

// SetSpeed sets the ratio of simulated time to wall time.
func (m *Model) SetSpeed(s float64) {
	if s > 0 {
		m.speed = s
	}
}

func cameraFor(scene dynamo.Scene) *Camera {
	switch s := scene.(type) {
	case *physics.Spheres:
		p := s.Params()
		ext := math.Max(p.Cube.HalfSize, p.Container.Radius)
		return NewCamera(p.Cube.Center, 1.15*ext)
	case *physics.Cloth:
		p := s.Params()
		span := p.Spacing * float64(max(p.Rows, p.Cols))
		center := r3.Add(p.Origin, r3.Scale(span/2, r3.Add(p.AxisU, p.AxisV)))
		c := NewCamera(center, 0.9*span)
		c.RotX = 0.5
		return c
	}
	return NewCamera(r3.Vec{}, 1)
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.message = ""
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
			m.lastTick = time.Time{}
		case "r":
			m.reset()
		case "f":
			m.toggleForce()
		case "e":
			if s, ok := m.scene.(*physics.Spheres); ok {
				s.SetEmission(!s.Emission())
			}
		case "c":
			if s, ok := m.scene.(*physics.Spheres); ok {
				if err := s.SetShape(s.Shape().Toggle()); err != nil {
					m.message = err.Error()
				}
			}
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "+", "=":
			m.speed = math.Min(8, m.speed*2)
		case "-", "_":
			m.speed = math.Max(0.125, m.speed/2)
		case "t":
			NextTheme()
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.ZoomIn()
		case "Z":
			m.camera.ZoomOut()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(time.Time(msg))
		}
		return m, tick()
	}
	return m, nil
}

// advance steps the scene by the wall time elapsed since the previous tick.
func (m *Model) advance(now time.Time) {
	if m.lastTick.IsZero() {
		m.lastTick = now
		return
	}
	m.pending += now.Sub(m.lastTick).Seconds() * m.speed
	m.lastTick = now

	steps := 0
	for m.pending >= m.dt && steps < maxStepsPerTick {
		m.scene.Step(m.dt)
		m.pending -= m.dt
		steps++
	}
	if steps == maxStepsPerTick {
		m.pending = 0
	}
	if steps == 0 {
		return
	}

	for _, o := range m.observers {
		o.OnFrame(m.scene, m.scene.Time())
	}
	m.energyHistory = append(m.energyHistory, m.scene.Energy())
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
	if halted := m.scene.Halted(); halted && !m.wasHalted {
		m.logger.Warn("simulation halted", "scene", m.scene.Name(), "t", m.scene.Time())
		m.message = "diverged: press f to force simulation"
	}
	m.wasHalted = m.scene.Halted()
}

func (m *Model) toggleForce() {
	g := guardOf(m.scene)
	if g == nil {
		return
	}
	m.scene.SetForceSimulation(!g.Override())
}

func guardOf(scene dynamo.Scene) *dynamo.Guard {
	if g, ok := scene.(interface{ Guard() *dynamo.Guard }); ok {
		return g.Guard()
	}
	return nil
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
	val := m.params[key]
	if val == 0 {
		val = 1e-3
	}
	newVal := val * factor
	if err := m.scene.(dynamo.Configurable).SetParam(key, newVal); err != nil {
		m.message = err.Error()
		return
	}
	m.params[key] = newVal
}

// reset restores the initial state and parameters.
func (m *Model) reset() {
	if c, ok := m.scene.(dynamo.Configurable); ok {
		for _, k := range m.paramKeys {
			if err := c.SetParam(k, m.initialParams[k]); err == nil {
				m.params[k] = m.initialParams[k]
			}
		}
	}
	m.scene.Reset()
	m.pending = 0
	m.wasHalted = false
	m.energyHistory = m.energyHistory[:0]
}

func (m Model) status() string {
	st := currentStyles()
	switch {
	case m.scene.Halted():
		return st.halted.Render("HALTED")
	case !m.running:
		return st.paused.Render("PAUSED")
	}
	s := "RUNNING"
	if g := guardOf(m.scene); g != nil && g.Override() {
		s += " (forced)"
	}
	return st.running.Render(s)
}

// View renders the TUI interface.
func (m Model) View() string {
	st := currentStyles()
	m.draw()
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.scene.Name())) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.scene.Time()))
	row("Steps", fmt.Sprintf("%d", m.scene.Steps()))
	row("Particles", fmt.Sprintf("%d", m.scene.Len()))
	row("Energy", fmt.Sprintf("%.3f", m.scene.Energy()))
	row("Speed", fmt.Sprintf("%gx", m.speed))
	if sp, ok := m.scene.(*physics.Spheres); ok {
		row("Container", sp.Shape().String())
		row("Emission", onOff(sp.Emission()))
	}

	s.WriteString("\nPARAMETERS\n")
	if len(m.paramKeys) == 0 {
		s.WriteString(st.label.Render("  (none)") + "\n")
	}
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-15s %.4g", k, m.params[k])
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.label.Render(line) + "\n")
		}
	}
	if m.message != "" {
		s.WriteString("\n" + st.halted.Render(m.message) + "\n")
	}
	s.WriteString(st.help.Render("SP:Pause R:Reset F:Force Q:Quit\nTab ↑↓:Tune +-:Speed ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
  Space  pause/resume        R  reset scene
  F      force simulation    Q  quit
  Tab    next parameter      ↑↓ tune parameter 5%
  + -    simulation speed    T  cycle themes
  E      toggle emission     C  cube/sphere container
  x X y Y rotate camera      z Z zoom
  ?      toggle this help`

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// draw renders the scene into the canvas.
func (m *Model) draw() {
	m.canvas.Clear()
	switch s := m.scene.(type) {
	case *physics.Spheres:
		m.drawSpheres(s)
	case *physics.Cloth:
		m.drawCloth(s)
	default:
		for i, p := range m.scene.Positions() {
			m.camera.Ball(m.canvas, p, m.scene.Radii()[i])
		}
	}
}

func (m *Model) drawSpheres(s *physics.Spheres) {
	p := s.Params()
	if p.Shape == physics.ShapeCube {
		m.drawCube(p.Cube)
	} else {
		m.camera.Ball(m.canvas, p.Container.Center, p.Container.Radius)
	}
	radii := s.Radii()
	for i, pos := range s.Positions() {
		m.camera.Ball(m.canvas, pos, radii[i])
	}
}

func (m *Model) drawCube(c collide.Cube) {
	h := c.HalfSize
	corner := func(i int) r3.Vec {
		v := r3.Vec{X: -h, Y: -h, Z: -h}
		if i&1 != 0 {
			v.X = h
		}
		if i&2 != 0 {
			v.Y = h
		}
		if i&4 != 0 {
			v.Z = h
		}
		return r3.Add(c.Center, v)
	}
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				m.camera.Line(m.canvas, corner(i), corner(i|bit))
			}
		}
	}
}

func (m *Model) drawCloth(c *physics.Cloth) {
	p := c.Params()
	if p.Obstacle.Enabled {
		m.camera.Ball(m.canvas, p.Obstacle.Center, p.Obstacle.Radius)
	}
	pos := c.Positions()
	for _, l := range c.Links() {
		if l.Kind == forces.Structural {
			m.camera.Line(m.canvas, pos[l.I], pos[l.J])
		}
	}
}

// Snapshot draws the current state of scene on a fresh canvas with the
// default camera.
func Snapshot(scene dynamo.Scene) *Canvas {
	m := NewModel(scene, 1, nil)
	m.draw()
	return m.canvas
}
