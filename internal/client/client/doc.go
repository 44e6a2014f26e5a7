// Package client is the remote transport of the losskeeper CLI.
//
// Client is the transport-agnostic contract the write path and the sync
// engine depend on: identity calls (Register, Login, Ping) and per-entry
// create/read/update/delete plus the bulk ListEntries read. GRPCClient
// implements it over the LedgerService gRPC API: it injects the access
// token into outgoing metadata, transparently refreshes an expired token
// once and maps gRPC status codes onto the sentinel errors in
// internal/common (ErrRemoteUnavailable, ErrUnauthorized, ErrNotFound,
// ErrValidation), so callers match them with errors.Is.
package client
