package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/campaignkit/pkg/buildinfo"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/observability"
)

// DefaultMaxBytes caps a fetched asset at 25 MiB.
const DefaultMaxBytes = 25 << 20

// FetcherOptions configures a Fetcher. Zero values select defaults.
type FetcherOptions struct {
	Client   *http.Client
	MaxBytes int64
	Attempts int
	Backoff  time.Duration
}

// Fetcher downloads image assets over HTTP(S).
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	attempts int
	backoff  time.Duration
}

// NewFetcher returns a Fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	f := &Fetcher{
		client:   opts.Client,
		maxBytes: opts.MaxBytes,
		attempts: opts.Attempts,
		backoff:  opts.Backoff,
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: 30 * time.Second}
	}
	if f.maxBytes <= 0 {
		f.maxBytes = DefaultMaxBytes
	}
	if f.attempts <= 0 {
		f.attempts = 3
	}
	if f.backoff <= 0 {
		f.backoff = time.Second
	}
	return f
}

// Fetch downloads url and returns it as an asset with Source set to url.
// Non-image responses are rejected with DECODE_FAILED.
func (f *Fetcher) Fetch(ctx context.Context, url string) (design.Asset, error) {
	if err := errors.ValidateURL(url); err != nil {
		return design.Asset{}, err
	}

	var asset design.Asset
	err := Retry(ctx, f.attempts, f.backoff, func() error {
		a, err := f.fetchOnce(ctx, url)
		if err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		if re, ok := err.(*RetryableError); ok {
			err = re.Err
		}
		return design.Asset{}, err
	}
	return asset, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (design.Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return design.Asset{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("Accept", "image/*")
	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return design.Asset{}, ctx.Err()
		}
		return design.Asset{}, Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", url))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return design.Asset{}, Retryable(errors.New(errors.ErrCodeRateLimited, "fetch %s: rate limited", url))
	case resp.StatusCode >= 500:
		return design.Asset{}, Retryable(errors.New(errors.ErrCodeNetwork, "fetch %s: %s", url, resp.Status))
	case resp.StatusCode == http.StatusNotFound:
		return design.Asset{}, errors.New(errors.ErrCodeNotFound, "fetch %s: not found", url)
	case resp.StatusCode >= 400:
		return design.Asset{}, errors.New(errors.ErrCodeNetwork, "fetch %s: %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return design.Asset{}, Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", url))
	}
	if int64(len(data)) > f.maxBytes {
		return design.Asset{}, errors.New(errors.ErrCodeInvalidInput, "asset %s exceeds %d bytes", url, f.maxBytes)
	}

	asset := design.NewAsset(data, url)
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") {
		asset.MIMEType = strings.TrimSpace(strings.SplitN(ct, ";", 2)[0])
	}
	if !strings.HasPrefix(asset.MIMEType, "image/") {
		return design.Asset{}, errors.New(errors.ErrCodeDecode, "%s is not an image (%s)", url, asset.MIMEType)
	}
	return asset, nil
}

// String implements fmt.Stringer for logging.
func (f *Fetcher) String() string {
	return fmt.Sprintf("fetcher(max=%d attempts=%d)", f.maxBytes, f.attempts)
}
