// Package server implements the length-delimited TCP request server each
// worker runs: an async accept loop that retries on transient errors,
// hands each request to a bounded task pool, and drains in-flight
// connections before Stop returns.
//
// Framing is terminated by "\r\n\r\n": the server reads until it sees the
// terminator, strips it, runs the registered handler on the request text,
// and writes the handler's return value back unchanged. Handlers build the
// "[response]\r\n" + content + "\r\n\r\n" envelope themselves with
// FormatResponse or FormatError. Each connection carries one request and
// one response; the server closes it after writing the response.
package server
