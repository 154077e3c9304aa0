package key

import (
	"context"
	"time"

	"github.com/relev-ai/relevai-go/observability"
)

// RefresherState is the lifecycle state of the background refresher.
type RefresherState string

const (
	// RefresherStopped means the task is not running and may be started.
	RefresherStopped RefresherState = "stopped"
	// RefresherRunning means the task is polling in the background.
	RefresherRunning RefresherState = "running"
	// RefresherFailed means the task gave up after MaxAttempts consecutive
	// renewal failures. Start clears this state.
	RefresherFailed RefresherState = "failed"
)

// Start launches the background refresher. It is a no-op when already
// running, when background refresh is not configured, or after Close.
// Starting clears a previous terminal failure.
func (k *Key) Start() {
	if k.closed.Load() || !k.cfg.Alive {
		return
	}

	k.taskMu.Lock()
	defer k.taskMu.Unlock()

	if k.running {
		return
	}

	k.stopCh = make(chan struct{})
	k.stoppedCh = make(chan struct{})
	k.running = true
	k.terminal = false

	k.metrics.RecordRefresherRestart(k.name, k.GrantType())
	k.metrics.SetRefresherRunning(k.name, k.GrantType(), true)
	k.logger.Debug("background refresher started",
		observability.Duration("poll_interval", k.cfg.PollInterval),
		observability.Duration("safety_margin", k.cfg.SafetyMargin),
	)

	go k.refreshLoop(k.stopCh, k.stoppedCh)
}

// Stop signals the refresher and blocks until the task has fully exited.
// Idempotent, and safe to call when the refresher never started.
func (k *Key) Stop() {
	k.taskMu.Lock()
	if k.running {
		k.running = false
		close(k.stopCh)
	}
	stoppedCh := k.stoppedCh
	k.taskMu.Unlock()

	if stoppedCh == nil {
		return
	}
	<-stoppedCh
	k.metrics.SetRefresherRunning(k.name, k.GrantType(), false)
}

// IsRunning reports whether the background refresher task is live.
func (k *Key) IsRunning() bool {
	k.taskMu.Lock()
	defer k.taskMu.Unlock()
	return k.running
}

// State returns the refresher's lifecycle state.
func (k *Key) State() RefresherState {
	k.taskMu.Lock()
	defer k.taskMu.Unlock()
	switch {
	case k.running:
		return RefresherRunning
	case k.terminal:
		return RefresherFailed
	default:
		return RefresherStopped
	}
}

// refreshLoop polls at PollInterval and renews once the token is inside
// the safety margin. Stop cancellation is honored between renewals and
// during failure backoff, never mid-renewal: in-flight issuance calls run
// to completion with a background context. Renewal errors never propagate
// out of the loop; after MaxAttempts consecutive failures the task exits
// terminally.
func (k *Key) refreshLoop(stopCh <-chan struct{}, stoppedCh chan<- struct{}) {
	defer close(stoppedCh)

	ticker := time.NewTicker(k.cfg.PollInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-stopCh:
			k.logger.Debug("background refresher stopped")
			return
		case <-ticker.C:
		}

		if k.ExpiresIn() > k.cfg.SafetyMargin {
			continue
		}

		err := k.renew(context.Background(), TriggerBackground)
		if err == nil {
			failures = 0
			continue
		}

		failures++
		k.logger.Warn("background renewal failed",
			observability.Int("consecutive_failures", failures),
			observability.Int("max_attempts", k.cfg.MaxAttempts),
			observability.Error(err),
		)

		if failures >= k.cfg.MaxAttempts {
			k.logger.Error("background refresher giving up",
				observability.Int("consecutive_failures", failures))
			k.markFailed()
			return
		}

		select {
		case <-stopCh:
			k.logger.Debug("background refresher stopped")
			return
		case <-time.After(k.cfg.FailureBackoff):
		}
	}
}

// markFailed records terminal task failure. The task stays down until an
// explicit Start or the restart side effect of a credential access.
func (k *Key) markFailed() {
	k.taskMu.Lock()
	k.running = false
	k.terminal = true
	k.taskMu.Unlock()

	k.metrics.SetRefresherRunning(k.name, k.GrantType(), false)
}
