// Package shutdown wires SIGINT/SIGTERM/SIGQUIT to a single Stop call.
//
// A Stoppable is anything with a no-argument Stop method, and Register
// arranges for Stop to run exactly once, no matter how many of the three
// signals arrive during the process's lifetime.
package shutdown
