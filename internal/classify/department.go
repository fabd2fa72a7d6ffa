package classify

import (
	"regexp"
	"strings"
)

// standardDepartments is the fixed TechMap category set. Bulk candidates
// arrive already tagged with one of these; board-API department names are
// normalized onto the same set so the dataset has a single facet.
var standardDepartments = map[string]bool{
	"admin": true, "business": true, "data-science": true, "design": true,
	"devops": true, "finance": true, "frontend": true, "hardware": true,
	"hr": true, "legal": true, "marketing": true,
	"procurement-operations": true, "product": true, "project-management": true,
	"qa": true, "sales": true, "security": true, "software": true, "support": true,
}

// departmentAliases maps ATS department names to standard categories.
// Iterated in slice order so substring fallback stays deterministic.
var departmentAliases = []struct{ alias, dept string }{
	// Engineering / R&D
	{"engineering", "software"},
	{"r&d", "software"},
	{"research and development", "software"},
	{"technology", "software"},
	{"development", "software"},
	{"backend", "software"},
	{"fullstack", "software"},
	{"full stack", "software"},
	{"platform", "software"},
	{"infrastructure", "software"},
	{"mobile", "software"},
	{"algorithms", "software"},
	{"system", "software"},
	{"automation", "qa"},
	{"reversing", "security"},
	// Frontend
	{"front end", "frontend"},
	{"front-end", "frontend"},
	{"ui", "frontend"},
	{"ux", "design"},
	// Product
	{"product management", "product"},
	// Sales / GTM
	{"go-to-market (gtm)", "sales"},
	{"go-to-market", "sales"},
	{"gtm", "sales"},
	{"pre sales", "sales"},
	{"pre-sales", "sales"},
	{"business development", "sales"},
	// Customer-facing
	{"customer success", "support"},
	{"customer support", "support"},
	{"customer experience", "support"},
	{"customers operations", "support"},
	{"professional services", "support"},
	// Operations
	{"operations", "procurement-operations"},
	{"supply chain", "procurement-operations"},
	{"strategy & operations", "procurement-operations"},
	{"strategic projects", "procurement-operations"},
	{"delivery", "procurement-operations"},
	// People / HR
	{"people", "hr"},
	{"talent", "hr"},
	{"recruiting", "hr"},
	// IT
	{"it", "devops"},
	{"information technology", "devops"},
	// Finance
	{"accounting", "finance"},
	{"cfo", "finance"},
	// C-suite / general
	{"cto", "software"},
	{"g&a", "admin"},
	{"general & administrative", "admin"},
}

// standardOrder fixes the scan order for the name-contains fallback, so
// strings naming two categories ("Product Design") resolve the same way on
// every run.
var standardOrder = []string{
	"data-science", "project-management", "procurement-operations",
	"software", "frontend", "devops", "hardware", "security", "qa",
	"product", "design", "marketing", "sales", "support", "business",
	"finance", "legal", "hr", "admin",
}

var numericPrefix = regexp.MustCompile(`^\d+[-\s]+`)

// NormalizeDepartment maps an ATS department name to a standard TechMap
// category. Numeric prefixes like "301-engineering" are stripped first.
// Returns empty string if no mapping fits.
func NormalizeDepartment(raw string) string {
	if raw == "" {
		return ""
	}

	dept := strings.ToLower(strings.TrimSpace(raw))
	if standardDepartments[dept] {
		return dept
	}

	stripped := numericPrefix.ReplaceAllString(dept, "")
	if standardDepartments[stripped] {
		return stripped
	}

	for _, a := range departmentAliases {
		if dept == a.alias || stripped == a.alias {
			return a.dept
		}
	}

	// Substring fallback.
	for _, candidate := range []string{dept, stripped} {
		for _, a := range departmentAliases {
			if strings.Contains(candidate, a.alias) {
				return a.dept
			}
		}
	}

	for _, std := range standardOrder {
		if strings.Contains(dept, std) || strings.Contains(stripped, std) {
			return std
		}
	}

	return ""
}
