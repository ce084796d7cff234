// Package api implements the Semantic Scholar Graph API client the crawler
// fetches through.
//
// The Client resolves arbitrary external identifier forms to stable S2
// paper IDs and retrieves citation/reference neighborhoods, paging through
// the underlying API transparently and classifying failures into a small
// taxonomy: ErrNotFound (terminal), RateLimitedError (retryable, with the
// server's retry-after hint), and TransientError (retryable). A shared
// token-bucket rate limiter keeps concurrent crawl workers within the
// API's request budget; an API key raises the limit without changing any
// crawl semantics.
//
// Retrier is the bounded retry/backoff state machine the crawler wraps
// around every fetch. Its states (idle, attempting, backoff-wait,
// succeeded, failed) are observable so retry budgets and backoff growth
// can be tested without sleeping.
package api
