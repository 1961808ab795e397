// Package httputil provides the HTTP client used to fetch model indexes,
// manifests and chunks from remote origins.
//
// # Overview
//
//   - [Client]: GET with default headers, status classification, optional
//     response caching through a [cache.Cache] and automatic retries
//   - [Retry]: retry with exponential backoff for transient failures
//
// # Errors
//
// A 404 response yields [ErrNotFound]. Network failures and 5xx responses
// yield [ErrNetwork] wrapped in [RetryableError]; 429 responses yield a
// retryable *errors.RateLimitedError carrying the Retry-After delay. Any
// other non-200 status yields a non-retryable [ErrNetwork].
//
// # Caching
//
// When a cache is configured, successful response bodies are stored under
// Keyer.HTTPKey(namespace, url) with the client's TTL:
//
//	c := httputil.NewClient(httputil.Options{Cache: store, Namespace: "origin", TTL: time.Hour})
//	body, err := c.Fetch(ctx, "https://models.example.com/index.json")
package httputil
