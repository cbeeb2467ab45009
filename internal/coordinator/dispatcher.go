package coordinator

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dreamware/examgrader/internal/grading"
	"github.com/dreamware/examgrader/internal/transport"
)

// Dispatcher owns the registered worker connections and drives one review
// round at a time: partition, send, gather.
type Dispatcher struct {
	workers []*transport.Conn // ordered by rank, workers[i] is rank i+1
	key     *grading.AnswerKey
	log     logrus.FieldLogger

	mu     sync.Mutex
	roster []int // ranks active in the most recent Dispatch, in send order
}

// NewDispatcher builds a Dispatcher over already-registered worker
// connections (see transport.Bus.AcceptWorkers) and the coordinator's
// authoritative answer key.
func NewDispatcher(workers []*transport.Conn, key *grading.AnswerKey, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{workers: workers, key: key, log: log}
}

// SetAnswerKey replaces the coordinator's authoritative answer key. The
// next Dispatch call uses it to build the restricted per-round key each
// worker receives.
func (d *Dispatcher) SetAnswerKey(key *grading.AnswerKey) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.key = key
}

// Roster returns the ranks active in the most recent Dispatch call, in
// the order they were sent to (and therefore gathered from).
func (d *Dispatcher) Roster() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]int, len(d.roster))
	copy(out, d.roster)
	return out
}

// Dispatch partitions exams across the registered workers, sends each
// active worker its slice and the answer-key stages it needs, and gathers
// results back in the order slices were sent. An empty batch returns no
// results and clears the roster without contacting any worker.
//
// Partitioning: active := min(len(workers), len(exams)); quota :=
// ceil(len(exams)/active); worker i (rank i+1) gets exams[i*quota :
// min((i+1)*quota, len(exams))]. Workers beyond active are left idle
// until the next Dispatch or a shutdown signal.
func (d *Dispatcher) Dispatch(exams []grading.Exam) ([]grading.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.roster = d.roster[:0]

	total := len(exams)
	if total == 0 {
		return nil, nil
	}

	active := len(d.workers)
	if total < active {
		active = total
	}
	quota := (total + active - 1) / active

	for i := 0; i < active; i++ {
		start := i * quota
		end := start + quota
		if end > total {
			end = total
		}
		if end <= start {
			d.log.WithField("worker_index", i).Warn("skipping empty exam slice")
			continue
		}
		slice := exams[start:end]
		worker := d.workers[i]
		rank := i + 1

		sliceKey := d.key.Restrict(distinctStages(slice))
		if err := worker.SendReview(sliceKey, slice); err != nil {
			return nil, fmt.Errorf("dispatch to rank %d: %w", rank, err)
		}
		d.roster = append(d.roster, rank)
	}

	var results []grading.Result
	for _, rank := range d.roster {
		worker := d.workers[rank-1]
		rankResults, err := worker.ReceiveResults()
		if err != nil {
			return nil, fmt.Errorf("gather from rank %d: %w", rank, err)
		}
		results = append(results, rankResults...)
	}
	return results, nil
}

// ShutdownAll sends SHUTDOWN to every registered worker, rank 1..W,
// unconditionally, including workers left idle by the most recent
// Dispatch call. Idle ranks are still blocked on a receive, so the
// command unblocks them the same way it unblocks active ones.
func (d *Dispatcher) ShutdownAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	for i, worker := range d.workers {
		if err := worker.SendShutdown(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shutdown rank %d: %w", i+1, err)
		}
	}
	return firstErr
}

func distinctStages(exams []grading.Exam) []int32 {
	seen := make(map[int32]bool)
	var stages []int32
	for _, e := range exams {
		if !seen[e.Stage] {
			seen[e.Stage] = true
			stages = append(stages, e.Stage)
		}
	}
	return stages
}
