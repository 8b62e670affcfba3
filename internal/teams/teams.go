// Package teams maps NHL team identifiers to the three-letter codes used
// across the store and the rendered pages.
package teams

import "sort"

// codeByID covers the 31-team league. Schedule entries whose team ids are
// not listed here (all-star rosters, exhibition squads) are skipped by the
// sync pass.
var codeByID = map[int64]string{
	1:  "NJD",
	2:  "NYI",
	3:  "NYR",
	4:  "PHI",
	5:  "PIT",
	6:  "BOS",
	7:  "BUF",
	8:  "MTL",
	9:  "OTT",
	10: "TOR",
	12: "CAR",
	13: "FLA",
	14: "TBL",
	15: "WSH",
	16: "CHI",
	17: "DET",
	18: "NSH",
	19: "STL",
	20: "CGY",
	21: "COL",
	22: "EDM",
	23: "VAN",
	24: "ANA",
	25: "DAL",
	26: "LAK",
	28: "SJS",
	29: "CBJ",
	30: "MIN",
	52: "WPG",
	53: "ARI",
	54: "VGK",
}

// Division groups team codes for page navigation.
type Division struct {
	Name  string
	Codes []string
}

var divisions = []Division{
	{Name: "Metropolitan", Codes: []string{"CAR", "CBJ", "NJD", "NYI", "NYR", "PHI", "PIT", "WSH"}},
	{Name: "Atlantic", Codes: []string{"BOS", "BUF", "DET", "FLA", "MTL", "OTT", "TBL", "TOR"}},
	{Name: "Central", Codes: []string{"CHI", "COL", "DAL", "MIN", "NSH", "STL", "WPG"}},
	{Name: "Pacific", Codes: []string{"ANA", "ARI", "CGY", "EDM", "LAK", "SJS", "VAN", "VGK"}},
}

// Lookup returns the three-letter code for an NHL team id.
func Lookup(id int64) (string, bool) {
	code, ok := codeByID[id]
	return code, ok
}

// Divisions returns the league's division grouping in display order.
func Divisions() []Division {
	return divisions
}

// Codes returns every known team code in alphabetical order.
func Codes() []string {
	codes := make([]string, 0, len(codeByID))
	for _, code := range codeByID {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
