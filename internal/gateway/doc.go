// Package gateway defines the contract every backend implementation fulfils.
//
// # Overview
//
// A Gateway mediates all backend access for the application and groups three
// capabilities:
//  1. Tables: filtered reads and partial inserts (see Filter).
//  2. Storage: object upload/removal and public URL resolution.
//  3. Auth: sign-up, sign-in, sign-out, metadata patching and session refresh.
//
// Two implementations live in sub-packages: rest talks to the hosted
// backend-as-a-service over HTTP, direct talks to a self-hosted Postgres and
// S3-compatible store.
//
// # Lifecycle
//
// A gateway is constructed once in main and injected into repositories.
// Handle wraps it so that calls made before construction or after Close fail
// with ErrUninitialized instead of dereferencing nil.
//
// # Error Handling
//
// Conditions are exposed as sentinel errors matched with errors.Is:
// ErrUninitialized, ErrUnauthenticated, ErrObjectExists. Backend failures
// arrive as *RemoteError with the backend's message kept verbatim.
package gateway
