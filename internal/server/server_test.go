package server

import (
	"bufio"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func echoHandler(request string) string {
	return FormatResponse(strings.TrimPrefix(request, "echo "))
}

func TestServerEchoRoundTrip(t *testing.T) {
	srv := New(echoHandler, 2, testLogger())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	require.NoError(t, srv.Start(port))
	defer srv.Stop()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("echo hello" + delimiter))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	buf := make([]byte, 0, 64)
	tmp := make([]byte, 64)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for !strings.HasSuffix(string(buf), delimiter) {
		n, err := reader.Read(tmp)
		require.NoError(t, err)
		buf = append(buf, tmp[:n]...)
	}

	require.Equal(t, FormatResponse("hello"), string(buf))
}

func TestServerStopDrainsConnections(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	handler := func(request string) string {
		close(started)
		<-release
		return FormatResponse("done")
	}

	srv := New(handler, 1, testLogger())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	port := mustPort(t, addr)

	require.NoError(t, srv.Start(port))

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("work" + delimiter))
	require.NoError(t, err)

	<-started

	stopped := make(chan struct{})
	go func() {
		srv.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned before the in-flight request finished")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the in-flight request finished")
	}
}

func mustPort(t *testing.T, addr string) int {
	t.Helper()
	_, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return port
}
