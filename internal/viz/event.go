package viz

// Event is one input to the presentation loop: CloseRequested,
// RedrawRequested or KeyInput.
type Event interface {
	isEvent()
}

// CloseRequested asks the loop to end, as if the window were closed.
type CloseRequested struct{}

// RedrawRequested asks for the next frame.
type RedrawRequested struct{}

// KeyState distinguishes key presses from releases.
type KeyState int

const (
	Pressed KeyState = iota
	Released
)

func (s KeyState) String() string {
	if s == Released {
		return "released"
	}
	return "pressed"
}

// Key names a key the way bubbletea prints it: " ", "u", "esc", "ctrl+c".
type Key string

func (k Key) String() string { return string(k) }

// KeyInput is a keyboard event. Repeat marks auto-repeat presses.
type KeyInput struct {
	Key    Key
	State  KeyState
	Repeat bool
}

func (CloseRequested) isEvent()  {}
func (RedrawRequested) isEvent() {}
func (KeyInput) isEvent()        {}
