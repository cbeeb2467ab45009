package transport

import (
	"net"

	"github.com/dreamware/examgrader/internal/errs"
	"github.com/dreamware/examgrader/internal/grading"
)

// Conn is one rank's end of the message bus: a synchronous, blocking
// channel addressed implicitly by the underlying connection, carrying
// commands, answer keys, exam batches, and results in strict send/receive
// order.
type Conn struct {
	Rank int
	nc   net.Conn
}

// NewConn wraps an established connection for rank.
func NewConn(nc net.Conn, rank int) *Conn {
	return &Conn{Rank: rank, nc: nc}
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.nc.Close() }

// SendReview sends a REVIEW command, the answer key the batch needs, and
// the exam batch itself, in that order. This is the coordinator's half of
// one dispatch round to a single worker rank.
func (c *Conn) SendReview(key *grading.AnswerKey, exams []grading.Exam) error {
	if err := WriteCommand(c.nc, CmdReview); err != nil {
		return err
	}
	if err := WriteAnswerKey(c.nc, key); err != nil {
		return err
	}
	return WriteExamBatch(c.nc, exams)
}

// SendShutdown sends a SHUTDOWN command with no further payload.
func (c *Conn) SendShutdown() error {
	return WriteCommand(c.nc, CmdShutdown)
}

// ReceiveRound is the worker's half of SendReview/SendShutdown: it reads a
// command and, for REVIEW, the answer key and exam batch that follow. For
// SHUTDOWN it returns a nil key and exams. Any command other than REVIEW
// or SHUTDOWN is a protocol error.
func (c *Conn) ReceiveRound() (Command, *grading.AnswerKey, []grading.Exam, error) {
	cmd, err := ReadCommand(c.nc)
	if err != nil {
		return 0, nil, nil, err
	}
	switch cmd {
	case CmdShutdown:
		return CmdShutdown, nil, nil, nil
	case CmdReview:
		key, err := ReadAnswerKey(c.nc)
		if err != nil {
			return 0, nil, nil, err
		}
		exams, err := ReadExamBatch(c.nc)
		if err != nil {
			return 0, nil, nil, err
		}
		return CmdReview, key, exams, nil
	default:
		return 0, nil, nil, errs.NewProtocolError("invalid command received from master")
	}
}

// SendResults is the worker's reply to a REVIEW round.
func (c *Conn) SendResults(results []grading.Result) error {
	return WriteResults(c.nc, results)
}

// ReceiveResults is the coordinator's read of one worker's reply.
func (c *Conn) ReceiveResults() ([]grading.Result, error) {
	return ReadResults(c.nc)
}
