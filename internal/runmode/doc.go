// Package runmode holds the run-mode record shared by the scheduler and the
// presenter, and the protocol that maps user intents onto it.
//
// The record starts [Paused]. Only a [Protocol] changes the mode; the
// scheduler only reads it.
package runmode
