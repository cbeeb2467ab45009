package coordinator

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"slices"

	"github.com/dreamware/examgrader/internal/grading"
)

// API is the orchestrator's HTTP front door: a small net/http surface
// wired directly to a Dispatcher, through which external callers submit
// exam batches and trigger cluster shutdown.
type API struct {
	dispatcher *Dispatcher
	log        logrus.FieldLogger
}

// NewAPI builds an API serving dispatcher.
func NewAPI(dispatcher *Dispatcher, log logrus.FieldLogger) *API {
	return &API{dispatcher: dispatcher, log: log}
}

// Mux builds the HTTP handler: POST /review, POST /shutdown, GET /workers.
func (a *API) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/review", a.handleReview)
	mux.HandleFunc("/shutdown", a.handleShutdown)
	mux.HandleFunc("/workers", a.handleWorkers)
	return mux
}

type wireAnswer struct {
	QstIdx int32 `json:"qst_idx"`
	AnsIdx int32 `json:"ans_idx"`
}

type wireExam struct {
	Stage   int32        `json:"stage"`
	IDExam  int32        `json:"id_exam"`
	Answers []wireAnswer `json:"answers"`
}

type wireResult struct {
	Stage           int32   `json:"stage"`
	IDExam          int32   `json:"id_exam"`
	CorrectAnswers  int32   `json:"correct_answers"`
	WrongAnswers    int32   `json:"wrong_answers"`
	UnscoredAnswers int32   `json:"unscored_answers"`
	Score           float64 `json:"score"`
}

type reviewResponse struct {
	BatchID string       `json:"batch_id"`
	Results []wireResult `json:"results"`
}

// handleReview accepts a JSON array of exams, dispatches them in one round,
// and returns the gathered results tagged with a batch id. The same id
// appears in this handler's log lines for the round; the per-worker sends
// and receives inside Dispatch are not logged with it.
func (a *API) handleReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var wireExams []wireExam
	if err := json.NewDecoder(r.Body).Decode(&wireExams); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}

	batchID := uuid.NewString()
	exams := make([]grading.Exam, 0, len(wireExams))
	for _, we := range wireExams {
		answers := make([]grading.Answer, 0, len(we.Answers))
		for _, wa := range we.Answers {
			answers = append(answers, grading.Answer{QstIdx: wa.QstIdx, AnsIdx: wa.AnsIdx})
		}
		exams = append(exams, grading.Exam{Stage: we.Stage, IDExam: we.IDExam, Answers: answers})
	}

	a.log.WithFields(logrus.Fields{"batch_id": batchID, "exams": len(exams)}).Info("dispatching review round")

	results, err := a.dispatcher.Dispatch(exams)
	if err != nil {
		a.log.WithFields(logrus.Fields{"batch_id": batchID, "error": err}).Error("dispatch failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	out := make([]wireResult, 0, len(results))
	for _, res := range results {
		out = append(out, wireResult{
			Stage:           res.Stage,
			IDExam:          res.IDExam,
			CorrectAnswers:  res.Correct,
			WrongAnswers:    res.Wrong,
			UnscoredAnswers: res.Unscored,
			Score:           res.Score,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reviewResponse{BatchID: batchID, Results: out})
}

// handleShutdown sends SHUTDOWN to every registered worker, including any
// left idle by the most recent Dispatch.
func (a *API) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := a.dispatcher.ShutdownAll(); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleWorkers reports the active-worker roster from the most recent
// Dispatch call.
func (a *API) handleWorkers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	roster := a.dispatcher.Roster()
	slices.Sort(roster)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		ActiveWorkers []int `json:"active_workers"`
	}{ActiveWorkers: roster})
}
