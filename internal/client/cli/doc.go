// Package cli provides the interactive losskeeper command-line client.
//
// It wires configuration, the local store, the remote client, the
// connectivity monitor and the sync engine, then runs a REPL. Entries can
// be recorded, edited and deleted whether or not the server is reachable;
// offline changes are queued and reconciled in the background.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher and runREPL for details.
package cli
