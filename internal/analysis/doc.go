// Package analysis summarises recorded runs: energy drift, actuation effort,
// the dominant oscillation frequency of a state component, and ASCII phase
// portraits of two components against each other.
package analysis
