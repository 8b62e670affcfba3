package models

import "fmt"

// Season labels an NHL season for display grouping.
type Season struct {
	Name      string `db:"name"`
	BeginYear int    `db:"begin_year"`
	EndYear   int    `db:"end_year"`
}

// SeasonName formats the conventional label for a season starting in
// beginYear, e.g. 2025 -> "2025-26".
func SeasonName(beginYear int) string {
	return fmt.Sprintf("%d-%02d", beginYear, (beginYear+1)%100)
}
