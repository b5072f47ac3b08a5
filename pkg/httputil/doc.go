// Package httputil fetches remote assets for the compositor.
//
// Campaign records may reference their image by URL instead of embedding it.
// When such a campaign is recalled, [Fetcher] downloads the bytes so the
// preview can be recomposed. Transient failures (network errors, 429 and 5xx
// responses) are retried with exponential backoff via [Retry]; anything else
// fails immediately.
//
//	f := httputil.NewFetcher(httputil.FetcherOptions{MaxBytes: 20 << 20})
//	asset, err := f.Fetch(ctx, "https://cdn.example.com/q4.jpg")
package httputil
