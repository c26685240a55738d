// Package retry retries API calls that fail for transient reasons.
//
// Errors are classified through pkg/errors: network trouble, rate limiting
// and 5xx responses are retried, everything else is returned at once. Each
// error type has its own backoff; a rate-limit response that carries an
// X-Rate-Limit-Reset header waits until that time instead.
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		return client.Like(ctx, id)
//	}, retry.FromConfig(cfg.Retry, log))
package retry
