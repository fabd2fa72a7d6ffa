package adapter

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/eladgov/jobscan/internal/classify"
	"github.com/eladgov/jobscan/internal/directory"
	"github.com/eladgov/jobscan/internal/model"
)

const (
	linkedInSearchBase = "https://www.linkedin.com/jobs/search/"
	linkedInPageSize   = 25
	defaultGeoID       = "101620260" // Israel
)

// LinkedInAdapter scrapes the public LinkedIn job-search pages (the
// login-free /jobs/search/ endpoint) for a configured set of queries.
// Supplemental source: disabled by default, priority between the bulk
// catalog and the board APIs.
type LinkedInAdapter struct {
	client   Fetcher
	queries  []string
	geoID    string
	maxPages int
	logger   *slog.Logger
	now      func() time.Time
}

// NewLinkedInAdapter creates an adapter scraping up to maxPages result pages
// per query, geo-scoped to Israel when geoID is empty.
func NewLinkedInAdapter(client Fetcher, queries []string, geoID string, maxPages int, logger *slog.Logger) *LinkedInAdapter {
	if geoID == "" {
		geoID = defaultGeoID
	}
	if maxPages <= 0 {
		maxPages = 3
	}
	return &LinkedInAdapter{
		client:   client,
		queries:  queries,
		geoID:    geoID,
		maxPages: maxPages,
		logger:   logger,
		now:      time.Now,
	}
}

// Source returns the adapter's source tag.
func (a *LinkedInAdapter) Source() model.Source { return model.SourceLinkedIn }

// Collect scrapes each query page by page, stopping a query early when a page
// yields no cards. Page failures are counted and skipped.
func (a *LinkedInAdapter) Collect(ctx context.Context, _ *directory.Directory) ([]model.JobCandidate, model.SourceStats) {
	var (
		candidates []model.JobCandidate
		stats      model.SourceStats
	)
	seen := make(map[string]bool)

	for _, query := range a.queries {
		for page := 0; page < a.maxPages; page++ {
			if ctx.Err() != nil {
				return candidates, stats
			}

			body, err := a.client.Fetch(ctx, a.searchURL(query, page*linkedInPageSize))
			if err != nil {
				a.logger.Warn("linkedin search page unavailable, skipping",
					"query", query, "page", page+1, "error", err)
				stats.Failures++
				break
			}

			cards, skipped := a.parsePage(body, seen)
			stats.Skipped += skipped
			if len(cards) == 0 {
				break // no more results for this query
			}
			candidates = append(candidates, cards...)
			stats.Fetched += len(cards)

			a.logger.Info("linkedin page scraped", "query", query, "page", page+1, "jobs", len(cards))
		}
	}

	return candidates, stats
}

func (a *LinkedInAdapter) searchURL(query string, start int) string {
	q := url.Values{}
	q.Set("keywords", query)
	q.Set("location", "Israel")
	q.Set("geoId", a.geoID)
	q.Set("f_TPR", "r604800") // past week
	q.Set("start", strconv.Itoa(start))
	return linkedInSearchBase + "?" + q.Encode()
}

// parsePage extracts job cards from one search results page. Cards missing a
// title or URL, duplicates within the run, and non-Israeli locations count as
// skipped.
func (a *LinkedInAdapter) parsePage(body []byte, seen map[string]bool) ([]model.JobCandidate, int) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		a.logger.Warn("linkedin page unparseable", "error", err)
		return nil, 0
	}

	cards := doc.Find("ul.jobs-search__results-list > li")
	if cards.Length() == 0 {
		// Fallback selector for the alternative page structure.
		cards = doc.Find("div.job-search-card")
	}

	var candidates []model.JobCandidate
	skipped := 0
	cards.Each(func(_ int, card *goquery.Selection) {
		title := cleanText(card.Find("h3.base-search-card__title").First().Text())
		company := cleanText(card.Find("h4.base-search-card__subtitle").First().Text())
		location := cleanText(card.Find("span.job-search-card__location").First().Text())

		link := card.Find("a.base-card__full-link, a.base-search-card--link").First()
		jobURL, _ := link.Attr("href")
		// Search links carry per-impression tracking queries; the path alone
		// identifies the posting.
		if i := strings.IndexByte(jobURL, '?'); i >= 0 {
			jobURL = jobURL[:i]
		}
		jobURL = strings.TrimSpace(jobURL)

		if title == "" || jobURL == "" || seen[jobURL] {
			skipped++
			return
		}
		if !classify.IsTargetRegion(location) {
			skipped++
			return
		}
		seen[jobURL] = true

		candidates = append(candidates, model.JobCandidate{
			Title:    title,
			Company:  company,
			Location: location,
			URL:      jobURL,
			Source:   model.SourceLinkedIn,
			Posted:   a.cardDate(card),
		})
	})

	return candidates, skipped
}

// cardDate reads the card's <time> element: the datetime attribute when
// present, otherwise a relative phrase like "2 days ago".
func (a *LinkedInAdapter) cardDate(card *goquery.Selection) string {
	el := card.Find("time").First()
	if dt, ok := el.Attr("datetime"); ok && len(dt) >= 10 {
		return dt[:10]
	}
	return a.parseRelativeDate(el.Text())
}

var relativeDateRe = regexp.MustCompile(`(\d+)\s+(second|minute|hour|day|week|month)`)

// parseRelativeDate converts phrases like "2 days ago" or "1 week ago" into
// YYYY-MM-DD. Unrecognized formats yield today's date.
func (a *LinkedInAdapter) parseRelativeDate(text string) string {
	day := a.now().UTC()

	m := relativeDateRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(text)))
	if m != nil {
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "day":
			day = day.AddDate(0, 0, -n)
		case "week":
			day = day.AddDate(0, 0, -7*n)
		case "month":
			day = day.AddDate(0, 0, -30*n)
		}
	}

	return day.Format("2006-01-02")
}

// cleanText collapses whitespace, including the non-breaking spaces LinkedIn
// pads card text with.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}
