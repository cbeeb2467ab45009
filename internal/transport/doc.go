// Package transport implements the master-worker message bus: a
// rank-addressed, synchronous protocol carrying exam batches, answer-key
// blobs, and results between the coordinator and its workers. Frames carry
// no tag: each worker rank has its own connection, and a round's frames
// follow a fixed order (the command, then for REVIEW the answer key and the
// exam batch, then the worker's results).
//
// Ranks are assigned by connection order as workers dial in to the
// coordinator's Bus listener and register. All sends and receives are
// ordinary blocking reads and writes against a net.Conn, framed with
// explicit binary.BigEndian-encoded lengths rather than relying on
// struct layout.
package transport
