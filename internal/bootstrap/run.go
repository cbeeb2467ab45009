package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dreamware/examgrader/internal/coordinator"
	"github.com/dreamware/examgrader/internal/grading"
	"github.com/dreamware/examgrader/internal/server"
	"github.com/dreamware/examgrader/internal/shutdown"
	"github.com/dreamware/examgrader/internal/transport"
	"github.com/dreamware/examgrader/internal/worker"
)

// Run wires up and runs the process for the given role, blocking until a
// graceful shutdown completes. It is the sole entry point cmd/examgrader
// calls after LoadConfig.
func Run(cfg Config, log *logrus.Logger) error {
	switch cfg.Role {
	case RoleOrchestrator:
		return runOrchestrator(cfg, log)
	case RoleWorker:
		return runWorker(cfg, log)
	default:
		return fmt.Errorf("bootstrap: unreachable role %q", cfg.Role)
	}
}

// stopOnce adapts any shutdown.Stoppable into one that also signals a done
// channel once Stop has run, so Run can block the calling goroutine until
// shutdown has actually completed, whether triggered by an OS signal or by
// the bus round loop itself receiving a SHUTDOWN command.
type stopOnce struct {
	target shutdown.Stoppable
	done   chan struct{}
	once   sync.Once
}

func newStopOnce(target shutdown.Stoppable) *stopOnce {
	return &stopOnce{target: target, done: make(chan struct{})}
}

func (s *stopOnce) Stop() {
	s.once.Do(func() {
		s.target.Stop()
		close(s.done)
	})
}

func runOrchestrator(cfg Config, log *logrus.Logger) error {
	busAddr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	bus, err := transport.Listen(busAddr)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{"addr": busAddr, "workers": cfg.Workers}).Info("waiting for workers to register")
	conns, err := bus.AcceptWorkers(context.Background(), cfg.Workers, log)
	if err != nil {
		bus.Close()
		return err
	}
	log.WithField("workers", len(conns)).Info("all workers registered")

	key := grading.NewAnswerKey()
	dispatcher := coordinator.NewDispatcher(conns, key, log)
	api := coordinator.NewAPI(dispatcher, log)

	httpSrv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           api.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.APIAddr).Info("orchestrator API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("orchestrator API listener failed")
		}
	}()

	stoppable := orchestratorStoppable{bus: bus, httpSrv: httpSrv}
	wrapped := newStopOnce(stoppable)
	cancel := shutdown.Register(wrapped, log)
	defer cancel()

	<-wrapped.done
	log.Info("orchestrator stopped")
	return nil
}

type orchestratorStoppable struct {
	bus     *transport.Bus
	httpSrv *http.Server
}

func (o orchestratorStoppable) Stop() {
	o.bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	o.httpSrv.Shutdown(ctx)
}

func runWorker(cfg Config, log *logrus.Logger) error {
	w := worker.New(log)
	srv := server.New(w.Handler(), runtime.NumCPU(), log)
	if err := srv.Start(cfg.Port); err != nil {
		return err
	}
	log.WithField("port", cfg.Port).Info("worker TCP server listening")

	wrapped := newStopOnce(srv)
	cancel := shutdown.Register(wrapped, log)
	defer cancel()

	conn, err := transport.DialMaster(context.Background(), cfg.MasterAddr)
	if err != nil {
		wrapped.Stop()
		return err
	}
	log.WithFields(logrus.Fields{"master": cfg.MasterAddr, "rank": conn.Rank}).Info("registered with orchestrator")

	go func() {
		if err := w.RunRounds(conn); err != nil {
			log.WithError(err).Warn("bus round loop ended with error")
		}
		wrapped.Stop()
	}()

	<-wrapped.done
	log.Info("worker stopped")
	return nil
}
