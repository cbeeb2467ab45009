package transport

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/dreamware/examgrader/internal/errs"
	"github.com/dreamware/examgrader/internal/grading"
)

func stageKey(stage int32) string { return strconv.Itoa(int(stage)) }

func parseStageKey(s string) int32 {
	v, _ := strconv.Atoi(s)
	return int32(v)
}

func questionsForStage(key *grading.AnswerKey, stage int32) []int32 {
	return key.Questions(stage)
}

// Command is the single byte that opens every master-worker exchange.
type Command uint8

const (
	// CmdReview tells a worker to receive an answer key and an exam
	// batch, grade it, and send results back.
	CmdReview Command = 1
	// CmdShutdown tells a worker there is no more work and it should
	// exit its receive loop.
	CmdShutdown Command = 2
)

func (c Command) String() string {
	switch c {
	case CmdReview:
		return "REVIEW"
	case CmdShutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// WriteCommand writes a single command byte.
func WriteCommand(w io.Writer, cmd Command) error {
	if _, err := w.Write([]byte{byte(cmd)}); err != nil {
		return errs.NewTransportError("write command", err)
	}
	return nil
}

// ReadCommand reads a single command byte.
func ReadCommand(r io.Reader) (Command, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errs.NewTransportError("read command", err)
	}
	return Command(buf[0]), nil
}

func writeInt32(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func readInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func writeFloat64(w io.Writer, v float64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	_, err := w.Write(buf[:])
	return err
}

func readFloat64(r io.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:])), nil
}

// WriteExamBatch writes a batch of exams: a count followed by, for each
// exam, its header (stage, id_exam, answers_size) and, when non-empty,
// the flat list of (qst_idx, ans_idx) pairs.
func WriteExamBatch(w io.Writer, exams []grading.Exam) error {
	if err := writeInt32(w, int32(len(exams))); err != nil {
		return errs.NewTransportError("write exam batch count", err)
	}
	for _, exam := range exams {
		if err := writeInt32(w, exam.Stage); err != nil {
			return errs.NewTransportError("write exam header", err)
		}
		if err := writeInt32(w, exam.IDExam); err != nil {
			return errs.NewTransportError("write exam header", err)
		}
		if err := writeInt32(w, int32(len(exam.Answers))); err != nil {
			return errs.NewTransportError("write exam header", err)
		}
		for _, a := range exam.Answers {
			if err := writeInt32(w, a.QstIdx); err != nil {
				return errs.NewTransportError("write answer", err)
			}
			if err := writeInt32(w, a.AnsIdx); err != nil {
				return errs.NewTransportError("write answer", err)
			}
		}
	}
	return nil
}

// ReadExamBatch is the inverse of WriteExamBatch.
func ReadExamBatch(r io.Reader) ([]grading.Exam, error) {
	count, err := readInt32(r)
	if err != nil {
		return nil, errs.NewTransportError("read exam batch count", err)
	}
	// Senders skip empty batches entirely, so a non-positive count can
	// only mean a corrupt or misaligned stream.
	if count <= 0 {
		return nil, errs.NewProtocolError("non-positive exam batch count")
	}
	exams := make([]grading.Exam, 0, count)
	for i := int32(0); i < count; i++ {
		stage, err := readInt32(r)
		if err != nil {
			return nil, errs.NewTransportError("read exam header", err)
		}
		idExam, err := readInt32(r)
		if err != nil {
			return nil, errs.NewTransportError("read exam header", err)
		}
		answersSize, err := readInt32(r)
		if err != nil {
			return nil, errs.NewTransportError("read exam header", err)
		}
		if answersSize < 0 {
			return nil, errs.NewProtocolError("negative answers size")
		}
		answers := make([]grading.Answer, 0, answersSize)
		for j := int32(0); j < answersSize; j++ {
			qst, err := readInt32(r)
			if err != nil {
				return nil, errs.NewTransportError("read answer", err)
			}
			ans, err := readInt32(r)
			if err != nil {
				return nil, errs.NewTransportError("read answer", err)
			}
			answers = append(answers, grading.Answer{QstIdx: qst, AnsIdx: ans})
		}
		exams = append(exams, grading.Exam{Stage: stage, IDExam: idExam, Answers: answers})
	}
	return exams, nil
}

// answerKeyWire is the JSON shape of an AnswerKey blob on the wire: a map
// from stage (as a string, since JSON object keys must be strings) to the
// list of question/answer pairs for that stage.
type answerKeyWire map[string][]struct {
	QstIdx int32 `json:"qst_idx"`
	AnsIdx int32 `json:"ans_idx"`
}

// WriteAnswerKey serializes key to JSON and writes it length-prefixed.
func WriteAnswerKey(w io.Writer, key *grading.AnswerKey) error {
	wire := answerKeyWireFromKey(key)
	payload, err := json.Marshal(wire)
	if err != nil {
		return errs.NewProtocolError("marshal answer key: " + err.Error())
	}
	if len(payload) > math.MaxInt32 {
		return errs.NewProtocolError("answer key payload too large")
	}
	if err := writeInt32(w, int32(len(payload))); err != nil {
		return errs.NewTransportError("write answer key length", err)
	}
	if _, err := w.Write(payload); err != nil {
		return errs.NewTransportError("write answer key", err)
	}
	return nil
}

// ReadAnswerKey is the inverse of WriteAnswerKey.
func ReadAnswerKey(r io.Reader) (*grading.AnswerKey, error) {
	size, err := readInt32(r)
	if err != nil {
		return nil, errs.NewTransportError("read answer key length", err)
	}
	if size <= 0 || size > math.MaxInt32 {
		return nil, errs.NewProtocolError("invalid answer key length")
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.NewTransportError("read answer key", err)
	}
	var wire answerKeyWire
	if err := json.Unmarshal(buf, &wire); err != nil {
		return nil, errs.NewProtocolError("unmarshal answer key: " + err.Error())
	}
	return keyFromAnswerKeyWire(wire), nil
}

func answerKeyWireFromKey(key *grading.AnswerKey) answerKeyWire {
	wire := make(answerKeyWire)
	for _, stage := range key.Stages() {
		entries := wire[stageKey(stage)]
		for _, q := range questionsForStage(key, stage) {
			a, _ := key.Lookup(stage, q)
			entries = append(entries, struct {
				QstIdx int32 `json:"qst_idx"`
				AnsIdx int32 `json:"ans_idx"`
			}{QstIdx: q, AnsIdx: a})
		}
		wire[stageKey(stage)] = entries
	}
	return wire
}

func keyFromAnswerKeyWire(wire answerKeyWire) *grading.AnswerKey {
	key := grading.NewAnswerKey()
	for stageStr, entries := range wire {
		stage := parseStageKey(stageStr)
		for _, e := range entries {
			key.Set(stage, e.QstIdx, e.AnsIdx)
		}
	}
	return key
}

// WriteResults writes a batch of graded results: a count followed by each
// result's stage, id_exam, correct/wrong/unscored tallies, and score.
func WriteResults(w io.Writer, results []grading.Result) error {
	if err := writeInt32(w, int32(len(results))); err != nil {
		return errs.NewTransportError("write results count", err)
	}
	for _, r := range results {
		for _, v := range []int32{r.Stage, r.IDExam, r.Correct, r.Wrong, r.Unscored} {
			if err := writeInt32(w, v); err != nil {
				return errs.NewTransportError("write result", err)
			}
		}
		if err := writeFloat64(w, r.Score); err != nil {
			return errs.NewTransportError("write result score", err)
		}
	}
	return nil
}

// ReadResults is the inverse of WriteResults.
func ReadResults(r io.Reader) ([]grading.Result, error) {
	count, err := readInt32(r)
	if err != nil {
		return nil, errs.NewTransportError("read results count", err)
	}
	if count <= 0 {
		return nil, errs.NewProtocolError("non-positive results count")
	}
	results := make([]grading.Result, 0, count)
	for i := int32(0); i < count; i++ {
		var fields [5]int32
		for j := range fields {
			v, err := readInt32(r)
			if err != nil {
				return nil, errs.NewTransportError("read result", err)
			}
			fields[j] = v
		}
		score, err := readFloat64(r)
		if err != nil {
			return nil, errs.NewTransportError("read result score", err)
		}
		results = append(results, grading.Result{
			Stage:    fields[0],
			IDExam:   fields[1],
			Correct:  fields[2],
			Wrong:    fields[3],
			Unscored: fields[4],
			Score:    score,
		})
	}
	return results, nil
}
