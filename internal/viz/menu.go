package viz

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/experiment"
)

var sceneInfo = map[string]string{
	"cloth":   "mass-spring sheet",
	"spheres": "emitted colliding particles",
}

type entry struct {
	scene, preset string
}

// App lists every scene preset and opens the chosen one in a live view.
// Esc returns from the live view to the list.
type App struct {
	registry  *experiment.Registry
	logger    *slog.Logger
	observers []dynamo.Observer

	entries []entry
	cursor  int
	live    *Model
	err     error
}

func NewApp(registry *experiment.Registry, logger *slog.Logger, observers ...dynamo.Observer) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{registry: registry, logger: logger, observers: observers}
	for _, scene := range registry.ListScenes() {
		a.entries = append(a.entries, entry{scene: scene})
		for _, p := range config.ListPresets(scene) {
			a.entries = append(a.entries, entry{scene: scene, preset: p})
		}
	}
	return a
}

func (a *App) Init() tea.Cmd { return nil }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.live != nil {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			a.live = nil
			return a, nil
		}
		next, cmd := a.live.Update(msg)
		live := next.(Model)
		a.live = &live
		return a, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch k.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.entries)-1 {
			a.cursor++
		}
	case "enter":
		return a, a.open(a.entries[a.cursor])
	}
	return a, nil
}

func (a *App) open(e entry) tea.Cmd {
	cfg := config.DefaultConfig()
	cfg.Scene = e.scene
	if e.scene == "cloth" {
		cfg.Dt = config.DefaultClothDt
	}
	if e.preset != "" {
		cfg = config.GetPreset(e.scene, e.preset)
	}
	scene, err := a.registry.Build(cfg, a.logger)
	if err != nil {
		a.err = err
		return nil
	}
	a.err = nil
	live := NewModel(scene, cfg.Dt, a.logger, a.observers...)
	live.SetSpeed(cfg.Speed)
	a.live = &live
	return live.Init()
}

func (a *App) View() string {
	if a.live != nil {
		return a.live.View()
	}
	st := currentStyles()
	var s strings.Builder
	s.WriteString(st.header.Render("PARTSIM") + "\n")
	for i, e := range a.entries {
		name := e.scene
		desc := sceneInfo[e.scene]
		if e.preset != "" {
			name = "  " + e.preset
			desc = ""
		}
		line := fmt.Sprintf("%-16s %s", name, desc)
		if i == a.cursor {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.value.Render(line) + "\n")
		}
	}
	if a.err != nil {
		s.WriteString("\n" + st.halted.Render(a.err.Error()) + "\n")
	}
	s.WriteString(st.help.Render("↑↓:Select Enter:Run Esc:Back Q:Quit"))
	return s.String()
}
