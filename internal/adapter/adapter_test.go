package adapter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/eladgov/jobscan/internal/directory"
	"github.com/eladgov/jobscan/internal/model"
	"github.com/eladgov/jobscan/internal/store"
)

type stubFetcher struct {
	calls     []string
	responses map[string]string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	s.calls = append(s.calls, url)
	if body, ok := s.responses[url]; ok {
		return []byte(body), nil
	}
	return nil, errors.New("no response for " + url)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadedDirectory builds a directory pre-populated with the given company
// records, the way a run sees it after Load.
func loadedDirectory(t *testing.T, fetcher directory.Fetcher, records []model.CompanyRecord) *directory.Directory {
	t.Helper()
	cachePath := filepath.Join(t.TempDir(), "company_cache.json")
	for i := range records {
		records[i].CachedAt = time.Now()
	}
	if err := store.WriteAtomic(cachePath, records); err != nil {
		t.Fatalf("seeding company cache: %v", err)
	}
	d := directory.New(fetcher, directory.Config{CachePath: cachePath}, discard())
	d.Load()
	return d
}
