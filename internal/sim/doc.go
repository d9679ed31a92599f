// Package sim holds the single simulation instance and the lock that
// shares it between the stepping goroutine and the presenter.
//
// Access always goes through a [Handle]. Steps and snapshots are mutually
// exclusive, so a [Snapshot] never observes a partially applied step.
package sim
