package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	code, ok := Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "NJD", code)

	code, ok = Lookup(54)
	require.True(t, ok)
	assert.Equal(t, "VGK", code)

	// 11 was the Atlanta Thrashers; the id is retired.
	_, ok = Lookup(11)
	assert.False(t, ok)

	_, ok = Lookup(999)
	assert.False(t, ok, "All-star and exhibition squads should not resolve")
}

func TestCodes(t *testing.T) {
	codes := Codes()
	assert.Len(t, codes, 31, "League had 31 teams")
	assert.IsIncreasing(t, codes, "Codes should come back sorted")

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.Len(t, code, 3, "Team codes are three letters")
		assert.False(t, seen[code], "Code %s should be unique", code)
		seen[code] = true
	}
}

func TestDivisionsCoverEveryTeam(t *testing.T) {
	known := make(map[string]bool)
	for _, code := range Codes() {
		known[code] = true
	}

	covered := make(map[string]bool)
	for _, div := range Divisions() {
		require.NotEmpty(t, div.Name)
		for _, code := range div.Codes {
			assert.True(t, known[code], "Division %s lists unknown code %s", div.Name, code)
			assert.False(t, covered[code], "Code %s appears in two divisions", code)
			covered[code] = true
		}
	}

	assert.Len(t, covered, len(known), "Every team should belong to exactly one division")
}
