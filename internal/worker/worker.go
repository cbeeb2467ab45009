package worker

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dreamware/examgrader/internal/errs"
	"github.com/dreamware/examgrader/internal/grading"
	"github.com/dreamware/examgrader/internal/server"
	"github.com/dreamware/examgrader/internal/transport"
)

// Worker holds a worker process's two answer stores: the flat interactive
// map the TCP protocol reads and writes, and the staged AnswerKey the bus
// round loop installs from the coordinator. Neither store affects the
// other.
type Worker struct {
	log logrus.FieldLogger

	mu      sync.RWMutex
	answers map[int32]int32 // interactive store: question_id -> answer_index

	keyMu sync.RWMutex
	key   *grading.AnswerKey // staged store: installed by the most recent REVIEW round
}

// New returns a Worker with empty answer stores.
func New(log logrus.FieldLogger) *Worker {
	return &Worker{
		log:     log,
		answers: make(map[int32]int32),
		key:     grading.NewAnswerKey(),
	}
}

// Handler returns the request handler the TCP server should register,
// bound to this Worker's interactive answer store.
func (w *Worker) Handler() server.Handler {
	return w.handle
}

type answerEntry struct {
	QuestionID  int32 `json:"question_id"`
	AnswerIndex int32 `json:"answer_index"`
}

// rawAnswerEntry distinguishes an absent field from a zero value, so a
// malformed set-answers payload is rejected instead of silently storing
// zeros.
type rawAnswerEntry struct {
	QuestionID  *int32 `json:"question_id"`
	AnswerIndex *int32 `json:"answer_index"`
}

type checkEntry struct {
	QuestionID int32 `json:"question_id"`
	IsCorrect  bool  `json:"is_correct"`
}

type checkResult struct {
	CorrectAnswers int64        `json:"correct_answers"`
	TotalQuestions int64        `json:"total_questions"`
	Answers        []checkEntry `json:"answers"`
}

// handle dispatches one interactive request. It never returns an error
// itself: every failure path is converted to a server.FormatError
// envelope so the connection always gets a well-formed response.
func (w *Worker) handle(request string) string {
	parts := strings.Fields(request)
	if len(parts) == 0 {
		return server.FormatError("Empty request")
	}

	command := parts[0]
	// Everything after the first token is the argument, verbatim (not
	// re-split): a JSON payload may itself contain spaces.
	var arg string
	if idx := strings.IndexByte(request, ' '); idx >= 0 {
		arg = strings.TrimSpace(request[idx+1:])
	}

	switch command {
	case "[echo]":
		return w.handleEcho(arg)
	case "[set-answers]":
		return w.handleSetAnswers(arg)
	case "[get-answers]":
		return w.handleGetAnswers()
	case "[check]":
		return w.handleCheck(arg)
	default:
		return server.FormatError("Invalid command: " + command)
	}
}

func (w *Worker) handleEcho(arg string) string {
	if arg == "" {
		return server.FormatError("Echo command requires a message")
	}
	return server.FormatResponse(arg)
}

func (w *Worker) handleSetAnswers(arg string) string {
	if arg == "" {
		return server.FormatError("Set-answers command requires JSON data")
	}
	var entries []rawAnswerEntry
	if err := json.Unmarshal([]byte(arg), &entries); err != nil {
		return server.FormatError("JSON parse error: " + err.Error())
	}
	next := make(map[int32]int32, len(entries))
	for _, e := range entries {
		if e.QuestionID == nil || e.AnswerIndex == nil {
			return server.FormatError("Error setting answers: Invalid answer format: missing required fields")
		}
		next[*e.QuestionID] = *e.AnswerIndex
	}
	w.mu.Lock()
	w.answers = next
	w.mu.Unlock()
	return server.FormatResponse("Answers set successfully")
}

func (w *Worker) handleGetAnswers() string {
	w.mu.RLock()
	entries := make([]answerEntry, 0, len(w.answers))
	for q, a := range w.answers {
		entries = append(entries, answerEntry{QuestionID: q, AnswerIndex: a})
	}
	w.mu.RUnlock()
	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return server.FormatError("Error getting answers: " + err.Error())
	}
	return server.FormatResponse(string(payload))
}

func (w *Worker) handleCheck(arg string) string {
	if arg == "" {
		return server.FormatError("Check command requires JSON data")
	}
	var submitted []rawAnswerEntry
	if err := json.Unmarshal([]byte(arg), &submitted); err != nil {
		return server.FormatError("JSON parse error: " + err.Error())
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	var correct int64
	entries := make([]checkEntry, 0, len(submitted))
	for _, sub := range submitted {
		// Entries missing either field are skipped, not rejected: the
		// tally covers only well-formed answers to known questions.
		if sub.QuestionID == nil || sub.AnswerIndex == nil {
			continue
		}
		expected, ok := w.answers[*sub.QuestionID]
		if !ok {
			continue
		}
		isCorrect := expected == *sub.AnswerIndex
		entries = append(entries, checkEntry{QuestionID: *sub.QuestionID, IsCorrect: isCorrect})
		if isCorrect {
			correct++
		}
	}

	payload, err := json.MarshalIndent(checkResult{
		CorrectAnswers: correct,
		TotalQuestions: int64(len(entries)),
		Answers:        entries,
	}, "", "  ")
	if err != nil {
		return server.FormatError("Error checking answers: " + err.Error())
	}
	return server.FormatResponse(string(payload))
}

// RunRounds blocks on conn, servicing REVIEW/SHUTDOWN rounds from the
// coordinator until a SHUTDOWN is received or a transport error occurs. On
// REVIEW it installs the answer key into the staged store, scores every
// exam in the batch, and sends the results back in the order received,
// the per-exam ordering the dispatcher's gather relies on.
func (w *Worker) RunRounds(conn *transport.Conn) error {
	for {
		cmd, key, exams, err := conn.ReceiveRound()
		if err != nil {
			return err
		}
		switch cmd {
		case transport.CmdShutdown:
			w.log.Info("shutdown round received, exiting bus loop")
			return nil
		case transport.CmdReview:
			w.keyMu.Lock()
			w.key = key
			w.keyMu.Unlock()

			results := make([]grading.Result, 0, len(exams))
			for _, exam := range exams {
				results = append(results, grading.Score(exam, key))
			}
			if err := conn.SendResults(results); err != nil {
				return err
			}
			w.log.WithField("count", len(exams)).Info("review round graded")
		default:
			return errs.NewProtocolError("unexpected command in round loop")
		}
	}
}
