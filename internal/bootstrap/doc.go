// Package bootstrap is the role bootstrap: it reads the process's
// environment, decides whether this run is the orchestrator or a worker,
// and wires together the message bus, dispatcher, HTTP front door, TCP
// server, task pool, and graceful-shutdown registrar accordingly. Exactly
// one binary (cmd/examgrader) embeds this package; the role is chosen at
// startup, never mid-run.
package bootstrap
