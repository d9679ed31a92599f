// Package sched runs the physics loop.
//
// Each iteration reads the run mode and then:
//
//   - Paused: resets the accumulator baseline to now and sleeps briefly.
//   - RateLimited: takes floor(elapsed/timestep) steps, advances the
//     baseline by exactly that many timesteps, then sleeps one timestep.
//   - Uncapped: takes one step and resets the baseline to now.
//
// Resuming from Paused therefore never replays the paused interval, and
// the fractional remainder carried between RateLimited polls keeps
// simulation time phase-locked to wall time.
package sched
