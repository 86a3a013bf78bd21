// Package throttle enforces the Provider's rate limits (§4.6): a sliding
// call window per endpoint, exponential backoff on rate-exceeded responses,
// and the run's daily-usage counter. All state lives in memory and dies
// with the process; the windows are rebuilt from scratch each run.
package throttle

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrDailyQuotaExceeded is returned when the configured daily call cap has
// been reached; the run must stop dispatching network work.
var ErrDailyQuotaExceeded = errors.New("daily request quota exceeded")

// maxBackoffMultiplier caps the adaptive backoff at 8x the retry-after.
const maxBackoffMultiplier = 8

// Limit is a per-endpoint call cap: at most Calls outbound requests in any
// interval of length Window.
type Limit struct {
	Calls  int
	Window time.Duration
}

// Throttle coordinates all workers' outbound calls. Endpoint state is
// serialized per endpoint; a worker never holds a throttle lock across
// network I/O (§5).
type Throttle struct {
	mu        sync.Mutex
	endpoints map[string]*endpointState

	defaultRetryAfter time.Duration

	dailyCap  int
	dailyUsed int
	dailyDay  string
}

type endpointState struct {
	mu     sync.Mutex
	limit  Limit
	window []time.Time

	consecutiveFailures int
	nextAllowed         time.Time

	// stats for the platform summary (§6.5)
	totalWait     time.Duration
	rateExceeded  int
	maxMultiplier int
}

// evict drops window timestamps older than now - W. Caller holds s.mu.
func (s *endpointState) evict(now time.Time) {
	cutoff := now.Add(-s.limit.Window)
	i := 0
	for i < len(s.window) && !s.window[i].After(cutoff) {
		i++
	}
	if i > 0 {
		s.window = append(s.window[:0], s.window[i:]...)
	}
}

// New creates a throttle with per-endpoint limits. dailyCap of zero means
// unlimited; defaultRetryAfter is used when a rate-exceeded response
// carries no Retry-After header.
func New(limits map[string]Limit, dailyCap int, defaultRetryAfter time.Duration) *Throttle {
	t := &Throttle{
		endpoints:         make(map[string]*endpointState, len(limits)),
		defaultRetryAfter: defaultRetryAfter,
		dailyCap:          dailyCap,
		dailyDay:          dayOf(time.Now()),
	}
	for name, limit := range limits {
		t.endpoints[name] = &endpointState{limit: limit}
	}
	return t
}

// SeedDailyUsage primes the daily counter from the Provider's own figure,
// so a run started mid-day doesn't get a fresh allowance.
func (t *Throttle) SeedDailyUsage(used int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if used > t.dailyUsed {
		t.dailyUsed = used
	}
}

// Wait blocks until endpoint may issue one call, then records the call's
// timestamp in the window and counts it against the daily quota. The push
// happens before the HTTP request goes out (§4.6). Returns ctx.Err() if
// cancelled while waiting, or ErrDailyQuotaExceeded.
func (t *Throttle) Wait(ctx context.Context, endpoint string) error {
	state := t.state(endpoint)

	for {
		if err := t.checkDaily(); err != nil {
			return err
		}

		state.mu.Lock()
		now := time.Now()

		var wait time.Duration
		if now.Before(state.nextAllowed) {
			wait = state.nextAllowed.Sub(now)
		} else {
			state.evict(now)
			if state.limit.Calls > 0 && len(state.window) >= state.limit.Calls {
				wait = state.window[0].Add(state.limit.Window).Sub(now)
			}
		}

		if wait <= 0 {
			state.window = append(state.window, now)
			state.mu.Unlock()
			t.recordCall()
			return nil
		}

		state.totalWait += wait
		state.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// OnRateExceeded applies the adaptive backoff after a rate-exceeded
// response: multiplier doubles per consecutive failure up to 8x, the call
// window is cleared to be conservative, and no call goes out before
// now + multiplier * retryAfter.
func (t *Throttle) OnRateExceeded(endpoint string, retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = t.defaultRetryAfter
	}

	state := t.state(endpoint)
	state.mu.Lock()
	defer state.mu.Unlock()

	state.consecutiveFailures++
	multiplier := 1 << (state.consecutiveFailures - 1)
	if multiplier > maxBackoffMultiplier {
		multiplier = maxBackoffMultiplier
	}
	if multiplier > state.maxMultiplier {
		state.maxMultiplier = multiplier
	}

	state.nextAllowed = time.Now().Add(time.Duration(multiplier) * retryAfter)
	state.window = state.window[:0]
	state.rateExceeded++
}

// OnSuccess resets the endpoint's backoff after any successful call.
func (t *Throttle) OnSuccess(endpoint string) {
	state := t.state(endpoint)
	state.mu.Lock()
	defer state.mu.Unlock()
	state.consecutiveFailures = 0
}

// Multiplier returns the backoff multiplier currently in effect for the
// endpoint (1 when not backing off).
func (t *Throttle) Multiplier(endpoint string) int {
	state := t.state(endpoint)
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.consecutiveFailures == 0 {
		return 1
	}
	multiplier := 1 << (state.consecutiveFailures - 1)
	if multiplier > maxBackoffMultiplier {
		multiplier = maxBackoffMultiplier
	}
	return multiplier
}

// EndpointStats is the per-endpoint digest for the summary artifact.
type EndpointStats struct {
	TotalWait          time.Duration
	RateExceededEvents int
	MaxMultiplier      int
}

// Stats snapshots every endpoint's counters.
func (t *Throttle) Stats() map[string]EndpointStats {
	t.mu.Lock()
	names := make([]string, 0, len(t.endpoints))
	for name := range t.endpoints {
		names = append(names, name)
	}
	t.mu.Unlock()

	stats := make(map[string]EndpointStats, len(names))
	for _, name := range names {
		state := t.state(name)
		state.mu.Lock()
		stats[name] = EndpointStats{
			TotalWait:          state.totalWait,
			RateExceededEvents: state.rateExceeded,
			MaxMultiplier:      state.maxMultiplier,
		}
		state.mu.Unlock()
	}
	return stats
}

// DailyUsage returns calls counted against the daily cap so far today.
func (t *Throttle) DailyUsage() (used, cap int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	return t.dailyUsed, t.dailyCap
}

func (t *Throttle) state(endpoint string) *endpointState {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.endpoints[endpoint]
	if !ok {
		state = &endpointState{}
		t.endpoints[endpoint] = state
	}
	return state
}

func (t *Throttle) checkDaily() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	if t.dailyCap > 0 && t.dailyUsed >= t.dailyCap {
		return ErrDailyQuotaExceeded
	}
	return nil
}

func (t *Throttle) recordCall() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	t.dailyUsed++
}

// rolloverLocked resets the counter when the operator-local calendar day
// changes mid-run.
func (t *Throttle) rolloverLocked() {
	if day := dayOf(time.Now()); day != t.dailyDay {
		t.dailyDay = day
		t.dailyUsed = 0
	}
}

func dayOf(now time.Time) string {
	return now.Local().Format("2006-01-02")
}

// EffectiveLimit reconciles a Provider-reported cap with an operator
// override: the override may only lower the cap, never raise it. Zero
// means "not specified" on either side.
func EffectiveLimit(providerCap, override int) int {
	switch {
	case providerCap <= 0:
		return override
	case override <= 0:
		return providerCap
	case override < providerCap:
		return override
	default:
		return providerCap
	}
}
