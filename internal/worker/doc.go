// Package worker implements a worker process's two independent surfaces:
// the bus round loop that receives REVIEW/SHUTDOWN rounds from the
// coordinator and grades exam batches, and the interactive TCP protocol
// ([echo]/[set-answers]/[get-answers]/[check]) a human or script can drive
// directly against the worker's own answer map. The two answer stores are
// deliberately independent: the bus round installs a staged AnswerKey used
// only for scoring dispatched batches, while the interactive protocol keeps
// its own flat question->answer map untouched by any REVIEW round.
package worker
