// Package viz is the presentation loop.
//
// A [Presenter] owns the input-to-mode protocol and the last rendered frame.
// Each redraw publishes the measured frame rate to the run-mode record,
// copies a snapshot out of the simulation handle, renders it through a
// [Renderer] and composes the overlay. Input events never take the
// simulation lock.
//
// [Run] hosts the presenter in a bubbletea program; [Model] translates
// bubbletea messages into [Event] values.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	U       - Toggle frame-rate limiting
//	Esc     - Quit (also Ctrl+C)
package viz
