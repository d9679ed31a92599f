package viz

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/san-kum/dynviz/internal/runmode"
)

// KeyMap binds keys to run-mode actions.
type KeyMap struct {
	Toggle     key.Binding
	Preference key.Binding
	Quit       key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "pause/resume"),
		),
		Preference: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "rate limit on/off"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// Action reports what pressing k means. Unbound keys map to NoAction.
func (m KeyMap) Action(k Key) runmode.Action {
	switch {
	case key.Matches(k, m.Toggle):
		return runmode.Toggle
	case key.Matches(k, m.Preference):
		return runmode.FlipPreference
	case key.Matches(k, m.Quit):
		return runmode.Quit
	default:
		return runmode.NoAction
	}
}

func (m KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.Toggle, m.Preference, m.Quit}
}

func (m KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{m.ShortHelp()}
}
