// Package coordinator implements the orchestrator half of the grading
// service: partitioning a batch of exams across registered workers,
// driving one review round over the message bus, and gathering results
// back into the order the caller submitted them in.
//
// # Overview
//
// The coordinator is the control plane for a single dispatch round. It
// works over the worker connections registered against the transport
// package's Bus, which assigns each worker a stable rank, and on every
// Dispatch call slices the incoming exam batch
// by quota, ships each non-empty slice to its worker along with the
// answer-key stages that slice needs, and gathers results back in rank
// order.
//
// # Architecture
//
//	┌───────────────────────────────────────┐
//	│            COORDINATOR                 │
//	├───────────────────────────────────────┤
//	│                                       │
//	│  ┌─────────────────────────────────┐ │
//	│  │   Dispatcher                     │ │
//	│  │   - exam partitioning by quota   │ │
//	│  │   - active-worker roster         │ │
//	│  │   - ordered gather               │ │
//	│  └─────────────────────────────────┘ │
//	│                                       │
//	│  ┌─────────────────────────────────┐ │
//	│  │   Bus (transport package)        │ │
//	│  │   - worker registration          │ │
//	│  │   - rank assignment              │ │
//	│  └─────────────────────────────────┘ │
//	│                                       │
//	│  ┌─────────────────────────────────┐ │
//	│  │   HTTP front door (api.go)       │ │
//	│  │   - POST /review                 │ │
//	│  │   - POST /shutdown                │ │
//	│  │   - GET  /workers                 │ │
//	│  └─────────────────────────────────┘ │
//	│                                       │
//	└───────────────────────────────────────┘
//
// # Partitioning
//
// Given E exams and W registered workers, the active worker count is
// min(W, E); each active worker gets ceil(E/active) exams, assigned in
// contiguous slices by worker index. A worker whose slice would be empty
// is skipped entirely: it is not sent a REVIEW command and does not
// appear in that round's active-worker roster. Workers beyond the active
// set are left idle until the next Dispatch call or a shutdown signal;
// they stay blocked on their next command receive in the meantime.
//
// # Concurrency
//
// Dispatch sends to each worker connection synchronously in rank order: a
// send never starts before the previous worker's send completes, and its
// gather phase reads results in the same order the sends happened in.
// Dispatch holds the Dispatcher's mutex for the whole round, so concurrent
// calls (such as overlapping POST /review requests) run one round after
// another.
package coordinator
