package wheel

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slog"

	"go-gamehall/internal/lib/logger/sl"
)

var ErrAlreadyRunning = errors.New("wheel: driver already running")

// Supervisor owns the single driver goroutine. A panic or error inside
// the loop is logged and the loop restarted after a backoff; a silent
// permanent stall is the one unacceptable failure mode here.
type Supervisor struct {
	driver  *Driver
	backoff time.Duration
	log     *slog.Logger

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

func NewSupervisor(driver *Driver, backoff time.Duration, log *slog.Logger) *Supervisor {
	return &Supervisor{
		driver:  driver,
		backoff: backoff,
		log:     log,
	}
}

// Start launches the driver loop. A second Start while running returns
// ErrAlreadyRunning instead of spawning a competing driver.
func (s *Supervisor) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.supervise()

	return nil
}

func (s *Supervisor) Stop() {
	if !s.running.Load() {
		return
	}

	close(s.stop)
	<-s.done
	s.running.Store(false)
}

func (s *Supervisor) supervise() {
	defer close(s.done)

	for {
		err := s.runGuarded()

		select {
		case <-s.stop:
			return
		default:
		}

		if err != nil {
			s.log.Error("wheel driver crashed, restarting", sl.Err(err))
		} else {
			s.log.Error("wheel driver returned unexpectedly, restarting")
		}

		select {
		case <-time.After(s.backoff):
		case <-s.stop:
			return
		}
	}
}

func (s *Supervisor) runGuarded() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("wheel driver panic: %v", r)
		}
	}()

	return s.driver.Run(s.stop)
}
