package classify

import "regexp"

// Seniority ladder rungs.
const (
	Intern    = "Intern"
	Junior    = "Junior"
	MidLevel  = "Mid-level"
	Senior    = "Senior"
	Lead      = "Lead"
	Manager   = "Manager"
	Executive = "Executive"
)

type seniorityRule struct {
	pattern *regexp.Regexp
	rung    string
}

// Rules are evaluated top to bottom, first match wins. Order matters:
// "Head of Engineering" must hit the Executive rule before "Engineering
// Manager" can hit Manager, and both before the broad Senior rule. The
// TechMap CSV "level" field describes role type (Engineer, Scientist), not
// seniority, so seniority is always derived from the title text.
var seniorityRules = []seniorityRule{
	{regexp.MustCompile(`(?i)\b(intern|internship|student|co[-\s]?op|apprentice|trainee)\b`), Intern},
	{regexp.MustCompile(`(?i)\b(junior|jr\.?|entry[-\s]level|graduate|new\s+grad|associate)\b`), Junior},
	{regexp.MustCompile(`(?i)\b(director|vp|vice[-\s]president|cto|cfo|ceo|ciso|cpo|coo|cmo|cro|chief|head\s+of|evp|svp|gm|general\s+manager)\b`), Executive},
	{regexp.MustCompile(`(?i)\b(lead|principal|staff|distinguished|founding|fellow|architect)\b`), Lead},
	{regexp.MustCompile(`(?i)\b(manager|team[-\s]lead|group[-\s]lead|engineering[-\s]manager|em)\b`), Manager},
	{regexp.MustCompile(`(?i)\b(senior|sr)\b`), Senior},
}

// Seniority maps a job title to one rung of the seniority ladder.
// Pure and deterministic: the same title always yields the same rung.
// Titles with no seniority signal default to Mid-level.
func Seniority(title string) string {
	if title == "" {
		return MidLevel
	}
	for _, rule := range seniorityRules {
		if rule.pattern.MatchString(title) {
			return rule.rung
		}
	}
	return MidLevel
}
