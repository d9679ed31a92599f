package viz

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

type TickMsg time.Time

type closeMsg struct{}

// Model adapts bubbletea messages to presenter events. Ticks stand in for
// redraw requests, paced at the presenter's interval.
type Model struct {
	p     *Presenter
	ready func()
}

func NewModel(p *Presenter) Model {
	return Model{p: p}
}

// WithReady returns a copy of m that calls fn from Init, once the program
// owns the terminal and is about to start its event loop.
func (m Model) WithReady(fn func()) Model {
	m.ready = fn
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.p.Interval(), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	if m.ready != nil {
		m.ready()
	}
	return m.tick()
}

// Update translates msg into an Event. Terminals report neither releases
// nor repeats, so every key message is a fresh press.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var ev Event
	switch msg := msg.(type) {
	case tea.KeyMsg:
		ev = KeyInput{Key: Key(msg.String()), State: Pressed}
	case TickMsg:
		m.p.HandleEvent(RedrawRequested{})
		return m, m.tick()
	case tea.WindowSizeMsg:
		m.p.Resize(msg.Width, msg.Height)
		return m, nil
	case closeMsg:
		ev = CloseRequested{}
	default:
		return m, nil
	}

	if m.p.HandleEvent(ev) {
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	return m.p.Frame()
}

// RunOptions select the terminal. Nil fields mean the process's own.
// Ready, if set, runs on the presentation goroutine once the program has
// started.
type RunOptions struct {
	Input     io.Reader
	Output    io.Writer
	AltScreen bool
	Ready     func()
}

// terminalSize reports the size of w when it is a terminal.
func terminalSize(w io.Writer) (width, height int, ok bool) {
	f, isFile := w.(*os.File)
	if !isFile {
		return 0, 0, false
	}
	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, 0, false
	}
	return width, height, true
}

// Run drives the presentation loop until the user quits or ctx ends. The
// caller's goroutine becomes the presentation goroutine.
func Run(ctx context.Context, p *Presenter, opts RunOptions) error {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if w, h, ok := terminalSize(out); ok {
		p.Resize(w, h)
	}

	var progOpts []tea.ProgramOption
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}

	prog := tea.NewProgram(NewModel(p).WithReady(opts.Ready), progOpts...)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			prog.Send(closeMsg{})
		case <-done:
		}
	}()

	_, err := prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
