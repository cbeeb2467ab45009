// Package pool provides a bounded task pool with per-submission futures.
//
// A fixed number of workers drain a shared queue, each Submit call
// returns a future for that particular submission's result, and
// submissions made after Stop fail immediately rather than enqueue. Go
// methods cannot introduce new type parameters, so the generic result
// type is carried by the free function Submit rather than a Pool method.
//
// Scheduling itself is delegated to alitto/pond rather than a hand-rolled
// mutex/condition-variable queue: pond already implements the bounded
// goroutine pool, and Submit's job is only to type-erase each submission
// into a pond task while preserving its own result type through Future.
package pool
