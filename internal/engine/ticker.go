package engine

import (
	"time"

	"dogwalk-server/pkg/logger"
)

// Ticker drives the game clock in auto-tick mode. It measures the real
// time elapsed between fires instead of trusting the nominal period:
// under load ticks arrive late, and the world must not slow down with
// them.
type Ticker struct {
	game   *Game
	period time.Duration
	stop   chan struct{}
	done   chan struct{}
}

func NewTicker(game *Game, period time.Duration) *Ticker {
	return &Ticker{
		game:   game,
		period: period,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (t *Ticker) Start() {
	go t.run()
	logger.Log.WithField("period", t.period).Info("auto-tick started")
}

// Stop terminates the loop and waits for the in-flight tick to finish.
func (t *Ticker) Stop() {
	close(t.stop)
	<-t.done
}

func (t *Ticker) run() {
	defer close(t.done)

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-t.stop:
			return
		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			if delta <= 0 {
				delta = t.period
			}
			if err := t.game.AdvanceTime(delta.Milliseconds()); err != nil {
				logger.Log.WithError(err).Debug("auto-tick loop exiting")
				return
			}
		}
	}
}
