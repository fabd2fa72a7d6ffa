package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/eladgov/jobscan/internal/model"
)

// File names inside the data directory. All four are plain JSON documents
// replaced wholesale: the browser UI reads them as static files.
const (
	JobsFile      = "jobs.json"
	CompaniesFile = "companies.json"
	MetadataFile  = "metadata.json"
	CacheFile     = "company_cache.json"
)

// Dataset persists the canonical job set and run metadata under one
// directory. Every write goes through a write-to-temp-then-rename step, so a
// reader at any instant sees either the previous complete document or the new
// complete document, never a partial one.
type Dataset struct {
	dir string
}

// New returns a Dataset rooted at dir, creating the directory if needed.
func New(dir string) (*Dataset, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &Dataset{dir: dir}, nil
}

// Dir returns the dataset directory.
func (d *Dataset) Dir() string { return d.dir }

// CachePath returns the company cache file path inside the data directory.
func (d *Dataset) CachePath() string { return filepath.Join(d.dir, CacheFile) }

// LoadJobs reads the previously committed canonical set keyed by ID.
// A missing jobs file is an empty set, not an error.
func (d *Dataset) LoadJobs() (map[string]model.CanonicalJob, error) {
	var jobs []model.CanonicalJob
	err := ReadJSON(filepath.Join(d.dir, JobsFile), &jobs)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]model.CanonicalJob{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading prior jobs: %w", err)
	}

	set := make(map[string]model.CanonicalJob, len(jobs))
	for _, j := range jobs {
		set[j.ID] = j
	}
	return set, nil
}

// LoadMetadata reads the last run's metadata. Missing file yields the zero value.
func (d *Dataset) LoadMetadata() (model.RunMetadata, error) {
	var meta model.RunMetadata
	err := ReadJSON(filepath.Join(d.dir, MetadataFile), &meta)
	if errors.Is(err, fs.ErrNotExist) {
		return model.RunMetadata{}, nil
	}
	if err != nil {
		return model.RunMetadata{}, fmt.Errorf("loading metadata: %w", err)
	}
	return meta, nil
}

// Commit atomically replaces the jobs, companies, and metadata documents.
// Any failure aborts the commit and is surfaced as a hard error; documents
// already renamed stay complete, and the caller treats the run as failed.
func (d *Dataset) Commit(jobs []model.CanonicalJob, companies []model.CompanyRecord, meta model.RunMetadata) error {
	if err := WriteAtomic(filepath.Join(d.dir, JobsFile), jobs); err != nil {
		return fmt.Errorf("committing jobs: %w", err)
	}
	if err := WriteAtomic(filepath.Join(d.dir, CompaniesFile), companies); err != nil {
		return fmt.Errorf("committing companies: %w", err)
	}
	if err := WriteAtomic(filepath.Join(d.dir, MetadataFile), meta); err != nil {
		return fmt.Errorf("committing metadata: %w", err)
	}
	return nil
}

// WriteAtomic marshals v as indented JSON into a temp file in the target's
// directory, then renames it over path.
func WriteAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadJSON reads and unmarshals a JSON document. The fs.ErrNotExist from a
// missing file is passed through for callers that treat it as empty state.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}
