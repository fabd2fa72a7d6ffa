package adapter

import "context"

// Fetcher is the rate-limited fetch surface adapters call through; satisfied
// by *httpx.Client. Every outbound request from every adapter funnels into
// the same client, so the global pacing gate covers the whole run.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
