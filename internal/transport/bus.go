package transport

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/dreamware/examgrader/internal/errs"
)

// Bus is the coordinator's half of rank assignment. Workers dial in and
// are handed ranks 1..W in the order they connect; the worker count is
// fixed for the lifetime of the process group.
type Bus struct {
	ln    net.Listener
	conns []*Conn
}

// Listen opens the bus's rank-registration listener on addr.
func Listen(addr string) (*Bus, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errs.NewTransportError("listen on bus address", err)
	}
	return &Bus{ln: ln}, nil
}

// Close closes the bus listener. Already-registered worker connections are
// unaffected.
func (b *Bus) Close() error {
	return b.ln.Close()
}

// AcceptWorkers blocks until expected workers have registered, or ctx is
// cancelled. Each worker is assigned the next rank in connection order
// (1, 2, 3, ...) and told its rank over the wire before AcceptWorkers
// returns it. The returned slice is ordered by rank and is the coordinator
// dispatcher's roster of ranks 1..expected.
func (b *Bus) AcceptWorkers(ctx context.Context, expected int, log logrus.FieldLogger) ([]*Conn, error) {
	type acceptResult struct {
		nc  net.Conn
		err error
	}
	results := make(chan acceptResult)

	go func() {
		for {
			nc, err := b.ln.Accept()
			select {
			case results <- acceptResult{nc, err}:
			case <-ctx.Done():
				if nc != nil {
					nc.Close()
				}
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for len(b.conns) < expected {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-results:
			if r.err != nil {
				return nil, errs.NewTransportError("accept worker registration", r.err)
			}
			rank := len(b.conns) + 1
			if err := writeInt32(r.nc, int32(rank)); err != nil {
				r.nc.Close()
				return nil, errs.NewTransportError("send assigned rank", err)
			}
			conn := NewConn(r.nc, rank)
			b.conns = append(b.conns, conn)
			log.WithFields(logrus.Fields{"rank": rank, "remote": r.nc.RemoteAddr()}).Info("worker registered")
		}
	}
	return b.conns, nil
}

// DialMaster connects to the coordinator's bus at addr and reads the rank
// it assigns, completing the worker side of registration.
func DialMaster(ctx context.Context, addr string) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errs.NewTransportError("dial master", err)
	}
	rank, err := readInt32(nc)
	if err != nil {
		nc.Close()
		return nil, errs.NewTransportError("read assigned rank", err)
	}
	return NewConn(nc, int(rank)), nil
}
