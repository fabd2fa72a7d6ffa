package classify

import (
	"strings"
	"unicode"
)

// cityMap translates Hebrew city names from the TechMap CSVs to their
// canonical English equivalents.
var cityMap = map[string]string{
	"תל אביב-יפו":       "Tel Aviv",
	"תל אביב - יפו":     "Tel Aviv",
	"תל-אביב-יפו":       "Tel Aviv",
	"תל אביב":           "Tel Aviv",
	"ירושלים":           "Jerusalem",
	"חיפה":              "Haifa",
	"באר שבע":           "Beer Sheva",
	"רעננה":             "Ra'anana",
	"הרצליה":            "Herzliya",
	"פתח תקווה":         "Petah Tikva",
	"פתח תקוה":          "Petah Tikva",
	"רמת גן":            "Ramat Gan",
	"נתניה":             "Netanya",
	"כפר סבא":           "Kfar Saba",
	"מודיעין-מכבים-רעות": "Modi'in",
	"מודיעין":           "Modi'in",
	"רחובות":            "Rehovot",
	"אשדוד":             "Ashdod",
	"ראשון לציון":       "Rishon LeZion",
	"הוד השרון":         "Hod HaSharon",
	"יקנעם עילית":       "Yokne'am",
	"יקנעם":             "Yokne'am",
	"לוד":               "Lod",
	"עכו":               "Acre",
	"נצרת":              "Nazareth",
	"קיסריה":            "Caesarea",
	"רמלה":              "Ramla",
	"בני ברק":           "Bnei Brak",
	"גבעתיים":           "Giv'atayim",
	"אור יהודה":         "Or Yehuda",
	"קרית אונו":         "Kiryat Ono",
	"קרית גת":           "Kiryat Gat",
	"עפולה":             "Afula",
	"טבריה":             "Tiberias",
	"אילת":              "Eilat",
	"מגדל העמק":         "Migdal HaEmek",
	"צפת":               "Safed",
	"נהריה":             "Nahariya",
	"אריאל":             "Ariel",
	"שדרות":             "Sderot",
	"דימונה":            "Dimona",
	"ביתר עילית":        "Beitar Illit",
	"גבעת שמואל":        "Giv'at Shmuel",
	"שוהם":              "Shoham",
	"יבנה":              "Yavne",
	"עתלית":             "Atlit",
	"Remote":            "Remote",
	"remote":            "Remote",
}

// targetCities are known Israeli city names in English, lowercased for
// substring matching against free-text board-API locations.
var targetCities = []string{
	"tel aviv", "tel-aviv", "jerusalem", "haifa", "beer sheva", "be'er sheva",
	"ra'anana", "raanana", "herzliya", "petah tikva", "ramat gan",
	"netanya", "kfar saba", "modi'in", "rehovot", "ashdod",
	"rishon lezion", "hod hasharon", "yokne'am", "lod", "acre",
	"nazareth", "caesarea", "ramla", "bnei brak", "giv'atayim",
	"or yehuda", "kiryat ono", "kiryat gat", "afula", "tiberias",
	"eilat", "migdal haemek", "safed", "nahariya", "ariel", "sderot",
	"dimona", "beitar illit", "giv'at shmuel", "shoham", "yavne",
	"atlit", "nes ziona", "rosh haayin", "rosh ha'ayin", "ramat hasharon",
	"holon", "bat yam", "givatayim", "kinneret",
}

var targetKeywords = []string{"israel", "gush dan", "tel aviv district"}

// TranslateCity normalizes a localized city name to English. English input
// passes through unchanged; unknown Hebrew text is returned as-is; empty
// input yields "Unknown".
func TranslateCity(city string) string {
	if city == "" {
		return "Unknown"
	}

	city = strings.TrimSpace(city)
	if en, ok := cityMap[city]; ok {
		return en
	}
	return city
}

// IsTargetRegion reports whether a free-text location string denotes a place
// in Israel. Checked in order: a curated city match is authoritative, then
// country-name keywords, then Hebrew script. "Remote"/"Hybrid" with no
// country qualifier counts as a signal (local boards post remote roles that
// way), but "Remote, Germany" fails the city and keyword checks and is
// excluded. Absence of any signal, including an empty string, excludes the
// candidate, since board-API feeds are multi-region.
func IsTargetRegion(location string) bool {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return false
	}

	if loc == "remote" || loc == "hybrid" {
		return true
	}

	// Hebrew script is a signal on its own.
	for _, r := range loc {
		if unicode.In(r, unicode.Hebrew) {
			return true
		}
	}

	for _, kw := range targetKeywords {
		if strings.Contains(loc, kw) {
			return true
		}
	}

	// Multi-location strings (Greenhouse uses "; " separators): the candidate
	// counts if any part names an Israeli city.
	parts := strings.FieldsFunc(loc, func(r rune) bool { return r == ',' || r == ';' })
	for _, part := range parts {
		part = strings.TrimSpace(part)
		for _, city := range targetCities {
			if strings.Contains(part, city) {
				return true
			}
		}
	}

	return false
}
