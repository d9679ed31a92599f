// Package control provides feedback controllers for dynamical systems.
//
// Controllers implement the [dynamo.Controller] interface to compute
// control inputs based on system state:
//
//   - [PID]: Proportional-Integral-Derivative controller
//   - [LQR]: Linear Quadratic Regulator with stock gains per model
//
// [New] also accepts "none", which returns a controller that always
// actuates zero.
//
// Controllers are stateful and not safe for concurrent use. Wrap one with
// sim.FromController to install it as a simulation's control law.
package control
