package merge

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query keys dropped during URL normalization, in addition
// to any key with the "utm_" prefix.
var trackingParams = map[string]bool{
	"source": true, "medium": true, "campaign": true,
	"gclid": true, "fbclid": true, "msclkid": true,
	"mc_cid": true, "mc_eid": true, "mkt_tok": true,
}

// NormalizeURL canonicalizes a job URL for identity: lowercase scheme and
// host, no fragment, no trailing slash, tracking parameters stripped, and
// remaining query keys sorted so encoding is deterministic.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || trackingParams[lk] {
			q.Del(k)
		}
	}
	for k := range q {
		sort.Strings(q[k])
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Fingerprint derives the canonical job ID from a URL: the first 12 hex
// characters of the md5 digest of the normalized URL. Two URLs differing
// only in tracking parameters collide to the same ID.
func Fingerprint(rawURL string) string {
	sum := md5.Sum([]byte(NormalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])[:12]
}
