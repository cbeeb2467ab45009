package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Stoppable is anything that can be asked to stop exactly once.
type Stoppable interface {
	Stop()
}

// Register starts a goroutine that waits for SIGINT, SIGTERM, or SIGQUIT
// and calls t.Stop() when one arrives. Only the first signal triggers
// Stop; subsequent signals of the same run are ignored. It
// returns a cancel function that stops listening for signals without
// calling Stop, for use in tests.
func Register(t Stoppable, log logrus.FieldLogger) (cancel func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var once sync.Once
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig, ok := <-sigCh:
				if !ok {
					return
				}
				once.Do(func() {
					log.WithField("signal", signalName(sig)).Info("received shutdown signal")
					t.Stop()
				})
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

func signalName(sig os.Signal) string {
	switch sig {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGQUIT:
		return "SIGQUIT"
	default:
		return sig.String()
	}
}
