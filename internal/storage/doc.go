// Package storage records presentation sessions to SQLite and reads them
// back for listing, plotting and export.
//
// A [Recorder] collects snapshots while the viewer runs; [Store.Save]
// writes them in one transaction under a fresh UUID.
package storage
