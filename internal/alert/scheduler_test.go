package alert

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"upbit-alert-bot/internal/types"
)

type countingStore struct {
	ticks int32
	panic bool
}

func (c *countingStore) GetAllTrackers() ([]types.Tracker, error) {
	atomic.AddInt32(&c.ticks, 1)
	if c.panic {
		panic("boom")
	}
	return nil, nil
}

func (c *countingStore) GetLastState(market, channelID string) (*types.AlertState, error) {
	return nil, nil
}

func (c *countingStore) UpsertState(market, channelID, state string, ts time.Time) error {
	return nil
}

func TestSchedulerRunsUntilCancelled(t *testing.T) {
	store := &countingStore{}
	engine := NewEngine(store, &fakeSource{}, &fakeNotifier{})
	scheduler := NewScheduler(engine, 10*time.Millisecond)
	scheduler.initialDelay = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}

	assert.GreaterOrEqual(t, atomic.LoadInt32(&store.ticks), int32(2))
}

func TestSchedulerSurvivesPanickingTick(t *testing.T) {
	store := &countingStore{panic: true}
	engine := NewEngine(store, &fakeSource{}, &fakeNotifier{})
	scheduler := NewScheduler(engine, 10*time.Millisecond)
	scheduler.initialDelay = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()
	<-done

	// The loop kept scheduling ticks despite every one of them panicking.
	assert.GreaterOrEqual(t, atomic.LoadInt32(&store.ticks), int32(2))
}
