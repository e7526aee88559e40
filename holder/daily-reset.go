package holder

import (
	"Relay/core"
	"Relay/lib/sl"
	"context"
	"log/slog"
	"sync"
	"time"
)

type resetter interface {
	ResetDaily(ctx context.Context) (int64, core.Outcome)
}

// DailyReset clears the daily counters on a fixed interval for the life of the process.
// A single loop goroutine means two sweeps never run at once.
type DailyReset struct {
	keeper   resetter
	interval time.Duration
	log      *slog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewDailyReset(keeper resetter, interval time.Duration, log *slog.Logger) *DailyReset {
	return &DailyReset{
		keeper:   keeper,
		interval: interval,
		log:      log.With(sl.Module("daily-reset")),
		stopChan: make(chan struct{}),
	}
}

func (d *DailyReset) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		d.log.Info("daily reset started", slog.Duration("interval", d.interval))

		for {
			select {
			case <-ticker.C:
				d.RunOnce(context.Background())
			case <-d.stopChan:
				d.log.Info("daily reset stopped")
				return
			}
		}
	}()
}

// RunOnce performs one sweep; a failed sweep is logged by the keeper and the loop goes on.
func (d *DailyReset) RunOnce(ctx context.Context) core.Outcome {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	_, outcome := d.keeper.ResetDaily(ctx)
	return outcome
}

// Stop waits for a sweep in progress to finish.
func (d *DailyReset) Stop() {
	d.stopOnce.Do(func() { close(d.stopChan) })
	d.wg.Wait()
}
