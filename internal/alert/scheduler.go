package alert

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Scheduler runs the engine on a fixed interval. Ticks never overlap: the
// next one is scheduled only after the previous evaluation, including all
// notification sends, has finished.
type Scheduler struct {
	engine       *Engine
	interval     time.Duration
	initialDelay time.Duration
}

func NewScheduler(engine *Engine, interval time.Duration) *Scheduler {
	return &Scheduler{
		engine:       engine,
		interval:     interval,
		initialDelay: time.Second,
	}
}

// Run blocks until ctx is cancelled. An in-flight tick always finishes
// before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	log.Infof("🚀 alert scheduler started, interval %s", s.interval)

	select {
	case <-time.After(s.initialDelay):
	case <-ctx.Done():
		return
	}

	for {
		s.runTick(ctx)

		select {
		case <-time.After(s.interval):
		case <-ctx.Done():
			log.Info("alert scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("🔥 panic recovered in alert tick: %v", r)
		}
	}()

	if err := s.engine.Tick(ctx); err != nil {
		log.Errorf("❌ alert tick failed: %v", err)
	}
}
