package server

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dreamware/examgrader/internal/pool"
)

// delimiter terminates every request and response on the wire.
const delimiter = "\r\n\r\n"

// Handler turns one request's text into a response's text. Handlers run
// on the server's task pool, not on the connection's own goroutine.
type Handler func(request string) string

// Server is a length-delimited, task-pool-backed TCP request server.
type Server struct {
	handler Handler
	pool    *pool.Pool
	log     logrus.FieldLogger

	ln          net.Listener
	running     atomic.Bool
	connections atomic.Int64
	stopOnce    sync.Once
}

// New builds a Server. poolSize bounds the number of requests handled
// concurrently.
func New(handler Handler, poolSize int, log logrus.FieldLogger) *Server {
	return &Server{
		handler: handler,
		pool:    pool.New(poolSize),
		log:     log,
	}
}

// Start binds port and begins accepting connections in a background
// goroutine. It returns once the listener is bound; it does not block for
// the server's lifetime.
func (s *Server) Start(port int) error {
	if s.handler == nil {
		return fmt.Errorf("server: no handler registered")
	}
	if s.ln != nil {
		return fmt.Errorf("server: already started")
	}
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("server: listen on port %d: %w", port, err)
	}
	s.ln = ln
	s.running.Store(true)
	go s.acceptLoop()
	return nil
}

// acceptLoop re-arms immediately on a successful accept. On a transient
// accept error it waits 100ms before retrying; once the listener is
// closed by Stop, Accept returns an error and running is already false,
// so the loop exits instead of retrying forever.
func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			s.log.WithError(err).Warn("accept error, retrying")
			time.Sleep(100 * time.Millisecond)
			continue
		}
		s.connections.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() {
		conn.Close()
		s.connections.Add(-1)
	}()

	request, err := readRequest(conn)
	if err != nil {
		return
	}

	fut, err := pool.Submit(s.pool, func() string {
		return s.handler(request)
	})
	if err != nil {
		// Pool already stopped; the connection gets no response, matching
		// a worker that is mid-shutdown refusing new work.
		return
	}
	response, _ := fut.Wait()
	io.WriteString(conn, response)
}

func readRequest(conn net.Conn) (string, error) {
	reader := bufio.NewReader(conn)
	var buf bytes.Buffer
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return "", err
		}
		buf.WriteByte(b)
		if buf.Len() >= len(delimiter) && bytes.HasSuffix(buf.Bytes(), []byte(delimiter)) {
			return strings.TrimSuffix(buf.String(), delimiter), nil
		}
	}
}

// FormatResponse wraps content in the protocol's response envelope.
func FormatResponse(content string) string {
	return "[response]\r\n" + content + "\r\n\r\n"
}

// FormatError wraps an error message in the same envelope FormatResponse
// uses, prefixed with "ERROR: ".
func FormatError(msg string) string {
	return FormatResponse("ERROR: " + msg)
}

// Stop closes the listener, waits for in-flight connections to drain, and
// stops the task pool. It is safe to call more than once; only the first
// call has effect, satisfying shutdown.Stoppable.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.running.Store(false)
		if s.ln != nil {
			s.ln.Close()
		}
		s.waitForDrain()
		s.pool.Stop()
	})
}

// waitForDrain polls every 500ms until no connections remain in flight.
func (s *Server) waitForDrain() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for s.connections.Load() > 0 {
		<-ticker.C
	}
}
