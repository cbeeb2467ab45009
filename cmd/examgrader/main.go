// Command examgrader runs the distributed exam-grading service. The same
// binary plays either role selected by the ROLE environment variable:
// "orch" runs the coordinator that partitions exam batches across a fixed
// worker pool and gathers graded results, "worker" runs a node that scores
// exams the coordinator ships it and also serves an interactive TCP
// protocol for ad hoc answer-key queries.
package main

import (
	"fmt"
	"os"

	"github.com/dreamware/examgrader/internal/bootstrap"
	"github.com/dreamware/examgrader/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := logging.Configure(cfg.Debug)
	log.WithFields(map[string]any{"role": cfg.Role, "port": cfg.Port}).Info("starting examgrader")

	if err := bootstrap.Run(cfg, log); err != nil {
		log.WithError(err).Error("fatal error")
		return 1
	}
	return 0
}
