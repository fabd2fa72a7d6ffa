package adapter

import (
	"context"
	"testing"

	"github.com/eladgov/jobscan/internal/model"
)

const softwareCSV = "\ufeffurl,title,company,city,category,size,level,updated\n" +
	"https://example.com/jobs/1,Backend Engineer,Acme,תל אביב,Cyber Security,201-500,Engineer,2026-08-20\n" +
	",Ghost Row,Acme,תל אביב,Cyber Security,201-500,Engineer,2026-08-20\n" +
	"https://example.com/jobs/2,Data Engineer,Beta,חיפה,Fintech,51-200,Engineer,2026-08-21\n"

func TestBulkCollect(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]string{
		"https://bulk/jobs/software.csv": softwareCSV,
		// "qa" category deliberately missing.
	}}
	a := NewBulkAdapter(fetcher, "https://bulk", []string{"software", "qa"}, discard())

	candidates, stats := a.Collect(context.Background(), nil)

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if stats.Fetched != 2 || stats.Skipped != 1 || stats.Failures != 1 {
		t.Errorf("stats = %+v, want Fetched=2 Skipped=1 Failures=1", stats)
	}

	first := candidates[0]
	if first.Source != model.SourceTechMap {
		t.Errorf("source = %q", first.Source)
	}
	if first.Title != "Backend Engineer" || first.Company != "Acme" {
		t.Errorf("unexpected first candidate %+v", first)
	}
	if first.Location != "תל אביב" {
		t.Errorf("city not carried through: %q", first.Location)
	}
	if first.Department != "software" {
		t.Errorf("department should be the category name, got %q", first.Department)
	}
	if first.Industry != "Cyber Security" || first.CompanySize != "201-500" {
		t.Errorf("enrichment columns dropped: %+v", first)
	}
	if first.Posted != "2026-08-20" {
		t.Errorf("posted = %q", first.Posted)
	}
}

func TestBulkCollect_ReorderedColumns(t *testing.T) {
	csv := "title,url,company\n" +
		"Engineer,https://example.com/jobs/9,Acme\n"
	fetcher := &stubFetcher{responses: map[string]string{
		"https://bulk/jobs/software.csv": csv,
	}}
	a := NewBulkAdapter(fetcher, "https://bulk", []string{"software"}, discard())

	candidates, _ := a.Collect(context.Background(), nil)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].URL != "https://example.com/jobs/9" {
		t.Errorf("header-mapped parse failed: %+v", candidates[0])
	}
}
