package model

import "time"

// CompanyRecord is a cached per-company enrichment record from the TechMap
// catalog. Created on first successful lookup, refreshed when older than the
// cache TTL, never deleted automatically: a company that disappears from the
// catalog simply stops being refreshed.
type CompanyRecord struct {
	Name         string    `json:"name"`
	Industry     string    `json:"industry"`
	Size         string    `json:"size,omitempty"`
	Website      string    `json:"website,omitempty"`
	Careers      string    `json:"careers,omitempty"`
	LinkedIn     string    `json:"linkedin,omitempty"`
	Cities       []string  `json:"cities,omitempty"`
	GreenhouseID string    `json:"greenhouseId,omitempty"`
	LeverID      string    `json:"leverId,omitempty"`
	CatalogPath  string    `json:"catalogPath,omitempty"` // file path inside the catalog repo
	CachedAt     time.Time `json:"cachedAt"`
}

// Fresh reports whether the record is younger than ttl as of now.
func (r CompanyRecord) Fresh(now time.Time, ttl time.Duration) bool {
	return !r.CachedAt.IsZero() && now.Sub(r.CachedAt) < ttl
}
