// Package physics provides dynamical system models for simulation.
//
// Each model implements the [dynamo.System] interface, defining the
// differential equations governing the system's evolution:
//
//   - [Pendulum]: damped pendulum with a pivot torque
//   - [DoublePendulum]: chaotic coupled pendulum
//   - [CartPole]: inverted pendulum on a driven cart
//   - [SpringMass]: a single mass or a chain of masses between walls
//   - [VanDerPol], [Duffing], [Lorenz]: forced nonlinear oscillators
//
// Every model implements [dynamo.Configurable] so model descriptions can set
// parameters by name. The mechanical models and the Duffing oscillator also
// implement [dynamo.Hamiltonian].
package physics
