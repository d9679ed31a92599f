// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Controller]: feedback controller interface
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. Integrators keep
// scratch buffers between calls and controllers keep integrator state.
// The sim package serializes access behind a single lock.
package dynamo
