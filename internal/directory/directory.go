package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/eladgov/jobscan/internal/model"
	"github.com/eladgov/jobscan/internal/store"
)

// Fetcher is the outbound-call surface the directory needs; satisfied by
// *httpx.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Config points the directory at the TechMap catalog.
type Config struct {
	BaseURL       string        // raw-content base for catalog files
	TreeURL       string        // repo tree listing, used to discover company file paths
	CategoriesURL string        // categoryId -> industry name lookup
	TTL           time.Duration // per-record freshness window
	CachePath     string        // durable cache file
}

// maxSyncFetches caps catalog downloads in a single run so a cold cache
// doesn't turn one run into a multi-thousand-request crawl. Newly discovered
// companies get a tighter per-run cap; they trickle in over successive runs.
const (
	maxSyncFetches    = 500
	maxMissingFetches = 100
)

// Directory is the time-bounded cache of per-company enrichment records
// backing the board-API adapters. It is loaded from durable storage at run
// start and persisted at commit; besides the canonical dataset it is the only
// state that survives across runs. Records are refreshed when older than the
// TTL; a refresh failure serves the stale record instead of failing the
// caller; staleness is preferable to absence.
type Directory struct {
	client Fetcher
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	records    map[string]model.CompanyRecord
	categories map[string]string // categoryId -> industry, fetched once per run
	pathIndex  map[string]string // slug -> catalog path, from the last tree fetch
}

// New creates an empty directory; call Load to read the durable cache.
func New(client Fetcher, cfg Config, logger *slog.Logger) *Directory {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Directory{
		client:    client,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		records:   make(map[string]model.CompanyRecord),
		pathIndex: make(map[string]string),
	}
}

// Load reads the cache file. A missing file is an empty cache; a corrupt file
// is logged and treated as empty rather than failing the run.
func (d *Directory) Load() {
	var cached []model.CompanyRecord
	err := store.ReadJSON(d.cfg.CachePath, &cached)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		d.logger.Warn("company cache unreadable, starting empty", "path", d.cfg.CachePath, "error", err)
		return
	}
	for _, rec := range cached {
		d.records[rec.Name] = rec
	}
	d.logger.Info("company cache loaded", "companies", len(d.records))
}

// Persist writes the cache file atomically.
func (d *Directory) Persist() error {
	if err := store.WriteAtomic(d.cfg.CachePath, d.Companies()); err != nil {
		return fmt.Errorf("persisting company cache: %w", err)
	}
	return nil
}

// Lookup returns the enrichment record for a company. Fresh cache hits return
// with no network call. A stale entry triggers one refresh fetch; if that
// fails the stale entry is returned. A miss triggers a catalog fetch by
// slug-derived path and returns ok=false only when nothing can be found.
func (d *Directory) Lookup(ctx context.Context, name string) (model.CompanyRecord, bool) {
	rec, ok := d.records[name]
	if ok && rec.Fresh(d.now(), d.cfg.TTL) {
		return rec, true
	}

	path := ""
	if ok && rec.CatalogPath != "" {
		path = rec.CatalogPath
	} else if p, found := d.pathIndex[slug(name)]; found {
		path = p
	} else {
		path = "companies/" + slug(name) + ".json"
	}

	fresh, err := d.fetchCompany(ctx, path)
	if err != nil {
		if ok {
			d.logger.Warn("company refresh failed, serving stale record",
				"company", name, "cached_at", rec.CachedAt, "error", err)
			return rec, true
		}
		return model.CompanyRecord{}, false
	}

	d.records[fresh.Name] = fresh
	if fresh.Name != name {
		// Catalog file names the company differently than the feed row did;
		// index under both so the caller's key still resolves.
		d.records[name] = fresh
	}
	return fresh, true
}

// Sync refreshes records for the given company names ahead of the board-API
// passes: stale records with a known catalog path are re-fetched directly,
// and unknown names are resolved through one tree listing. Per-company
// failures are absorbed; the cache simply keeps what it had.
func (d *Directory) Sync(ctx context.Context, names map[string]struct{}) {
	d.loadCategories(ctx)

	var stale, missing []string
	now := d.now()
	for name := range names {
		rec, ok := d.records[name]
		switch {
		case !ok:
			missing = append(missing, name)
		case !rec.Fresh(now, d.cfg.TTL):
			stale = append(stale, name)
		}
	}
	sort.Strings(stale)
	sort.Strings(missing)

	if len(stale) == 0 && len(missing) == 0 {
		d.logger.Info("company cache fresh, skipping catalog downloads", "companies", len(d.records))
		return
	}

	fetched := 0
	for _, name := range stale {
		if fetched >= maxSyncFetches || ctx.Err() != nil {
			break
		}
		rec := d.records[name]
		if rec.CatalogPath == "" {
			missing = append(missing, name)
			continue
		}
		fresh, err := d.fetchCompany(ctx, rec.CatalogPath)
		if err != nil {
			d.logger.Warn("company refresh failed, keeping stale record", "company", name, "error", err)
			continue
		}
		d.records[name] = fresh
		fetched++
	}

	if len(missing) > 0 && fetched < maxSyncFetches {
		d.resolveMissing(ctx, missing, &fetched)
	}

	d.logger.Info("company cache synced",
		"fetched", fetched, "stale", len(stale), "missing", len(missing), "companies", len(d.records))
}

// resolveMissing discovers catalog paths for unknown companies via the repo
// tree listing and fetches the ones whose slug matches a wanted name.
func (d *Directory) resolveMissing(ctx context.Context, missing []string, fetched *int) {
	if err := d.loadTree(ctx); err != nil {
		d.logger.Warn("catalog tree unavailable, using cache only", "error", err)
		return
	}

	resolved := 0
	for _, name := range missing {
		if *fetched >= maxSyncFetches || resolved >= maxMissingFetches || ctx.Err() != nil {
			return
		}
		path, ok := d.pathIndex[slug(name)]
		if !ok {
			continue
		}
		rec, err := d.fetchCompany(ctx, path)
		if err != nil {
			d.logger.Warn("company fetch failed, skipping", "company", name, "error", err)
			continue
		}
		d.records[rec.Name] = rec
		if rec.Name != name {
			d.records[name] = rec
		}
		*fetched++
		resolved++
	}
}

// Companies returns all cached records sorted by name.
func (d *Directory) Companies() []model.CompanyRecord {
	out := make([]model.CompanyRecord, 0, len(d.records))
	seen := make(map[string]bool, len(d.records))
	for _, rec := range d.records {
		if seen[rec.Name] {
			continue // aliased keys point at the same record
		}
		seen[rec.Name] = true
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// companyFile is the catalog's per-company JSON document.
type companyFile struct {
	Name         string `json:"name"`
	CategoryID   any    `json:"categoryId"`
	Size         string `json:"size"`
	WebsiteURL   string `json:"websiteUrl"`
	CareersURL   string `json:"careersUrl"`
	LinkedinID   string `json:"linkedinId"`
	GreenhouseID string `json:"greenhouseId"`
	LeverID      string `json:"leverId"`
	Addresses    []struct {
		City string `json:"city"`
	} `json:"addresses"`
}

func (d *Directory) fetchCompany(ctx context.Context, path string) (model.CompanyRecord, error) {
	body, err := d.client.Fetch(ctx, d.cfg.BaseURL+"/"+path)
	if err != nil {
		return model.CompanyRecord{}, err
	}

	var cf companyFile
	if err := json.Unmarshal(body, &cf); err != nil {
		return model.CompanyRecord{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cf.Name == "" {
		return model.CompanyRecord{}, fmt.Errorf("parsing %s: missing company name", path)
	}

	industry := "Other"
	if ind, ok := d.categories[categoryKey(cf.CategoryID)]; ok {
		industry = ind
	}

	cities := make([]string, 0, len(cf.Addresses))
	for _, a := range cf.Addresses {
		cities = append(cities, a.City)
	}

	return model.CompanyRecord{
		Name:         cf.Name,
		Industry:     industry,
		Size:         cf.Size,
		Website:      cf.WebsiteURL,
		Careers:      cf.CareersURL,
		LinkedIn:     cf.LinkedinID,
		Cities:       cities,
		GreenhouseID: cf.GreenhouseID,
		LeverID:      cf.LeverID,
		CatalogPath:  path,
		CachedAt:     d.now(),
	}, nil
}

// loadCategories fetches the categoryId -> industry lookup once per run.
// Failure leaves the map empty; records then default to industry "Other".
func (d *Directory) loadCategories(ctx context.Context) {
	if d.categories != nil {
		return
	}
	d.categories = map[string]string{}

	body, err := d.client.Fetch(ctx, d.cfg.CategoriesURL)
	if err != nil {
		d.logger.Warn("categories lookup unavailable", "error", err)
		return
	}
	if err := json.Unmarshal(body, &d.categories); err != nil {
		d.logger.Warn("categories lookup unparseable", "error", err)
		return
	}
	d.logger.Info("categories loaded", "count", len(d.categories))
}

type treeListing struct {
	Tree []struct {
		Path string `json:"path"`
	} `json:"tree"`
}

func (d *Directory) loadTree(ctx context.Context) error {
	body, err := d.client.Fetch(ctx, d.cfg.TreeURL)
	if err != nil {
		return err
	}

	var tree treeListing
	if err := json.Unmarshal(body, &tree); err != nil {
		return fmt.Errorf("parsing catalog tree: %w", err)
	}

	for _, item := range tree.Tree {
		if !strings.HasPrefix(item.Path, "companies/") || !strings.HasSuffix(item.Path, ".json") {
			continue
		}
		base := strings.TrimSuffix(strings.TrimPrefix(item.Path, "companies/"), ".json")
		d.pathIndex[base] = item.Path
	}
	d.logger.Info("catalog tree loaded", "company_files", len(d.pathIndex))
	return nil
}

// categoryKey stringifies the catalog's categoryId, which appears both as a
// JSON number and as a string across company files.
func categoryKey(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}

// slug lowercases a company name into the catalog's file-name form.
func slug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
