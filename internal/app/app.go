package app

import (
	"context"
	"fmt"
	"log/slog"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizchat/internal/router"
	"github.com/abhisek/quizchat/internal/screen"
	"github.com/abhisek/quizchat/internal/screens/settings"
	"github.com/abhisek/quizchat/internal/screens/setup"
	"github.com/abhisek/quizchat/internal/screens/welcome"
	"github.com/abhisek/quizchat/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	env    *screen.Env
	router *router.Router
	width  int
	height int
}

// newAppModel creates a new AppModel. The splash screen hands over to
// quiz setup.
func newAppModel(env *screen.Env) AppModel {
	root := welcome.New(func() screen.Screen { return setup.New(env) })
	return AppModel{
		env:    env,
		router: router.New(root),
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+s":
			if b, ok := m.router.Active().(screen.Busy); ok && b.Busy() {
				return m, nil
			}
			if _, ok := m.router.Active().(*settings.SettingsScreen); !ok {
				return m, func() tea.Msg {
					return router.PushScreenMsg{Screen: settings.New(m.env)}
				}
			}
		case "esc":
			if b, ok := m.router.Active().(screen.BackBlocker); ok && b.BlocksBack() {
				return m, nil
			}
			if _, ok := m.router.Active().(*settings.SettingsScreen); ok {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.frame())
	return v
}

// frame renders header, active screen and footer at the current size.
func (m AppModel) frame() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	sess := m.env.Session
	header := layout.RenderHeader(title, string(sess.Operation()), string(sess.Difficulty()), m.width)

	footerHints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	}
	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program and blocks until it exits or ctx ends.
func Run(ctx context.Context, env *screen.Env) error {
	p := tea.NewProgram(newAppModel(env), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		slog.Error("tui_exit", "error", err)
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
