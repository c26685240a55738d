// Package ratelimit keeps the bot inside the API's request budget.
//
// Two layers are involved. A Limiter paces outgoing requests on the client
// side (TokenBucket wraps golang.org/x/time/rate). A Budget interprets the
// server's own accounting, as reported by the rate-limit status endpoint,
// and says how long to back off once the remaining count drops below a
// threshold: until the window resets when the reset time is known, or a
// fixed interval otherwise.
package ratelimit
