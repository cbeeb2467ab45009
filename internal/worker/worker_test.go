package worker

import (
	"io"
	"net"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/examgrader/internal/grading"
	"github.com/dreamware/examgrader/internal/transport"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestHandleEcho(t *testing.T) {
	w := New(testLogger())
	assert.Equal(t, "[response]\r\nhello\r\n\r\n", w.handle("[echo] hello"))
}

func TestHandleEchoMissingMessage(t *testing.T) {
	w := New(testLogger())
	assert.Equal(t, "[response]\r\nERROR: Echo command requires a message\r\n\r\n", w.handle("[echo]"))
}

func TestHandleUnknownCommand(t *testing.T) {
	w := New(testLogger())
	assert.Equal(t, "[response]\r\nERROR: Invalid command: [frob]\r\n\r\n", w.handle("[frob] x"))
}

func TestSetThenCheckAnswers(t *testing.T) {
	w := New(testLogger())

	setResp := w.handle(`[set-answers] [{"question_id":1,"answer_index":2},{"question_id":2,"answer_index":0}]`)
	assert.Equal(t, "[response]\r\nAnswers set successfully\r\n\r\n", setResp)

	checkResp := w.handle(`[check] [{"question_id":1,"answer_index":2},{"question_id":2,"answer_index":1}]`)
	assert.Contains(t, checkResp, `"correct_answers": 1`)
	assert.Contains(t, checkResp, `"total_questions": 2`)
	assert.Contains(t, checkResp, `"is_correct": true`)
	assert.Contains(t, checkResp, `"is_correct": false`)
}

func TestSetAnswersMissingFieldIsRejected(t *testing.T) {
	w := New(testLogger())
	resp := w.handle(`[set-answers] [{"question_id":1}]`)
	assert.Equal(t, "[response]\r\nERROR: Error setting answers: Invalid answer format: missing required fields\r\n\r\n", resp)

	// The store is untouched by the rejected payload.
	got := w.handle("[get-answers]")
	assert.Contains(t, got, "[]")
}

func TestCheckSkipsMalformedAndUnknownEntries(t *testing.T) {
	w := New(testLogger())
	w.handle(`[set-answers] [{"question_id":1,"answer_index":2}]`)

	resp := w.handle(`[check] [{"question_id":1,"answer_index":2},{"question_id":9,"answer_index":0},{"answer_index":1}]`)
	assert.Contains(t, resp, `"correct_answers": 1`)
	assert.Contains(t, resp, `"total_questions": 1`)
}

func TestGetAnswersRoundTrip(t *testing.T) {
	w := New(testLogger())
	w.handle(`[set-answers] [{"question_id":5,"answer_index":1}]`)
	resp := w.handle("[get-answers]")
	assert.Contains(t, resp, `"question_id": 5`)
	assert.Contains(t, resp, `"answer_index": 1`)
}

func TestRunRoundsGradesAndShutsDown(t *testing.T) {
	masterSide, workerSide := net.Pipe()
	master := transport.NewConn(masterSide, 0)
	defer master.Close()

	w := New(testLogger())
	done := make(chan error, 1)
	go func() { done <- w.RunRounds(transport.NewConn(workerSide, 1)) }()

	key := grading.NewAnswerKey()
	key.Set(1, 1, 2)
	exams := []grading.Exam{
		{Stage: 1, IDExam: 10, Answers: []grading.Answer{{QstIdx: 1, AnsIdx: 2}, {QstIdx: 2, AnsIdx: 0}}},
	}
	require.NoError(t, master.SendReview(key, exams))

	results, err := master.ReceiveResults()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int32(10), results[0].IDExam)
	assert.Equal(t, int32(1), results[0].Correct)
	assert.Equal(t, int32(1), results[0].Unscored)

	require.NoError(t, master.SendShutdown())
	require.NoError(t, <-done)
}
