package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sargunv/curateur/lib/screenscraper"
)

// Kind classifies a Provider error by what the scheduler should do about it
// (§7): abort the run, retry the item, or record it as unmatched.
type Kind int

const (
	// KindFatal aborts the run: bad credentials, blacklisted client,
	// exhausted daily quota. No amount of retrying helps within this run.
	KindFatal Kind = iota
	// KindRetryable is transient: rate-exceeded, server busy, network
	// timeouts and resets.
	KindRetryable
	// KindNotFound means the Provider has no record; the item is recorded
	// as unmatched and never retried.
	KindNotFound
	// KindMalformed is a response the engine couldn't parse; retried up to
	// a small bound, then demoted to not-found with a warning.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindRetryable:
		return "retryable"
	case KindNotFound:
		return "not_found"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// MalformedRetryBound is how many times a malformed response is retried
// before being demoted to not-found.
const MalformedRetryBound = 2

// Classify maps an error from this package into the engine's taxonomy. The
// status-code composition follows the upstream API's documented meanings:
// 401/403/423/426 and the 430/431 quota family are fatal, 429 is retryable,
// 404 is not-found, and a 400 (the Provider rejecting our own query, e.g. a
// filename it can't digest) is treated as unmatched rather than retried.
func Classify(err error) Kind {
	if err == nil {
		return KindRetryable
	}

	var apiErr *screenscraper.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Type {
		case screenscraper.ErrorTypeUnauthorized,
			screenscraper.ErrorTypeForbidden,
			screenscraper.ErrorTypeLocked,
			screenscraper.ErrorTypeUpgradeRequired,
			screenscraper.ErrorTypeQuotaExceeded,
			screenscraper.ErrorTypeQuotaKOExceeded:
			return KindFatal
		case screenscraper.ErrorTypeTooManyRequests:
			return KindRetryable
		case screenscraper.ErrorTypeNotFound, screenscraper.ErrorTypeBadRequest:
			return KindNotFound
		default:
			return KindRetryable
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindRetryable
	}

	// Parse failures on an otherwise-2xx body surface from the wire client
	// as wrapped unmarshal errors.
	if strings.Contains(err.Error(), "failed to parse") {
		return KindMalformed
	}

	return KindRetryable
}

// IsRateExceeded reports whether the error is the Provider's rate limit
// (the signal that trips the throttle's adaptive backoff, §4.6).
func IsRateExceeded(err error) bool {
	return screenscraper.IsRateLimited(err)
}

// RetryAfter extracts the server-suggested wait from a rate-exceeded error;
// zero when the server sent none.
func RetryAfter(err error) time.Duration {
	var apiErr *screenscraper.APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return 0
}
