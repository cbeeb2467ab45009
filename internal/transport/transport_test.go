package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/examgrader/internal/errs"
	"github.com/dreamware/examgrader/internal/grading"
)

func pipeConns() (*Conn, *Conn) {
	a, b := net.Pipe()
	return NewConn(a, 1), NewConn(b, 0)
}

func TestSendReviewRoundTrip(t *testing.T) {
	master, worker := pipeConns()

	key := grading.NewAnswerKey()
	key.Set(1, 1, 2)
	exams := []grading.Exam{
		{Stage: 1, IDExam: 10, Answers: []grading.Answer{{QstIdx: 1, AnsIdx: 2}}},
	}

	errCh := make(chan error, 1)
	go func() { errCh <- master.SendReview(key, exams) }()

	cmd, gotKey, gotExams, err := worker.ReceiveRound()
	require.NoError(t, err)
	require.NoError(t, <-errCh)

	assert.Equal(t, CmdReview, cmd)
	assert.Equal(t, exams, gotExams)
	v, ok := gotKey.Lookup(1, 1)
	assert.True(t, ok)
	assert.Equal(t, int32(2), v)
}

func TestSendShutdownRoundTrip(t *testing.T) {
	master, worker := pipeConns()

	errCh := make(chan error, 1)
	go func() { errCh <- master.SendShutdown() }()

	cmd, key, exams, err := worker.ReceiveRound()
	require.NoError(t, err)
	require.NoError(t, <-errCh)

	assert.Equal(t, CmdShutdown, cmd)
	assert.Nil(t, key)
	assert.Nil(t, exams)
}

func TestSendResultsRoundTrip(t *testing.T) {
	master, worker := pipeConns()

	results := []grading.Result{
		{Stage: 1, IDExam: 10, Correct: 1, Wrong: 0, Unscored: 0, Score: 1.0},
	}

	errCh := make(chan error, 1)
	go func() { errCh <- worker.SendResults(results) }()

	got, err := master.ReceiveResults()
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	assert.Equal(t, results, got)
}

func TestInvalidCommandIsProtocolError(t *testing.T) {
	a, b := net.Pipe()
	worker := NewConn(b, 0)

	go func() {
		_ = WriteCommand(a, Command(99))
	}()

	_, _, _, err := worker.ReceiveRound()
	require.Error(t, err)
}

func TestZeroLengthExamBatchIsProtocolError(t *testing.T) {
	a, b := net.Pipe()
	worker := NewConn(b, 0)

	go func() {
		_ = WriteCommand(a, CmdReview)
		_ = WriteAnswerKey(a, grading.NewAnswerKey())
		_ = writeInt32(a, 0)
	}()

	_, _, _, err := worker.ReceiveRound()
	require.Error(t, err)
	var perr *errs.ProtocolError
	assert.True(t, errors.As(err, &perr))
}

func TestBusAssignsRanksInConnectionOrder(t *testing.T) {
	bus, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer bus.Close()

	addr := bus.ln.Addr().String()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	log := logrus.New()
	log.SetOutput(io.Discard)

	done := make(chan []*Conn, 1)
	go func() {
		conns, err := bus.AcceptWorkers(ctx, 2, log)
		require.NoError(t, err)
		done <- conns
	}()

	first, err := DialMaster(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Rank)

	second, err := DialMaster(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Rank)

	conns := <-done
	require.Len(t, conns, 2)
	assert.Equal(t, 1, conns[0].Rank)
	assert.Equal(t, 2, conns[1].Rank)
}
