// Package app assembles a simulation, its scheduler and its viewer.
//
//	a, err := app.FromFile("pendulum").
//		WithController("pid", control.DefaultGains()).
//		WithDefaultRendering(app.RenderOptions{FPS: 60}).
//		Build()
//
// Build reports every configuration problem before any goroutine starts.
package app
