// Package internal documents the agenda server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, error envelopes, and routing
// - domain: login and event business rules, validation, and id parsing
// - storage: the Postgres gateway, repositories, and migrations
// - loadtest: synthetic traffic for the loadtest command
// - auth, config, metrics, sanitize, telemetry, validation: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
