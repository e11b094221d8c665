// Package cmd implements the command-line interface of kvmsg. It provides a
// hierarchical command structure with operations for running a server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value store operations (get, set, cas, version, listen, ping, perf)
//   - serve: Command for starting and configuring a kvmsg server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as environment variable with the prefix KVMSG_
// (e.g. KVMSG_REQUEST_TIMEOUT=30s). .env and .env.local files are loaded first.
//
// See kvmsg -help for a list of all commands.
package cmd
