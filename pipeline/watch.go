package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/stackforge/typesync/watcher"
)

// Watch runs an initial sync cycle, then keeps artifacts in sync with
// backend source changes until the context is cancelled. Failed cycles are
// logged and the watch continues; only watcher setup errors are returned.
func (o *Orchestrator) Watch(ctx context.Context) error {
	if _, err := o.SyncOnce(ctx); err != nil {
		o.log.Errorw("Initial sync failed, watching anyway", "error", err)
	}

	limiter := o.watchLimiter()

	w, err := watcher.New(watcher.Options{
		Globs:       o.cfg.Watch.Globs,
		Debounce:    time.Duration(o.cfg.Watch.DebounceMs) * time.Millisecond,
		TriggerFile: o.cfg.Watch.TriggerFile,
	}, func(ctx context.Context) error {
		if limiter != nil && !limiter.Allow() {
			o.log.Warnw("Sync cycle rate limit reached, skipping",
				"max_cycles_per_minute", o.cfg.Watch.MaxCyclesPerMinute)
			return nil
		}
		_, err := o.SyncOnce(ctx)
		return err
	}, o.log)
	if err != nil {
		return err
	}
	defer w.Stop()

	w.Start(ctx)
	o.log.Infow("Watching for backend changes",
		"globs", o.cfg.Watch.Globs,
		"debounce_ms", o.cfg.Watch.DebounceMs)

	<-ctx.Done()
	return nil
}

func (o *Orchestrator) watchLimiter() *rate.Limiter {
	perMinute := o.cfg.Watch.MaxCyclesPerMinute
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}
