package service

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"localist/internal/services/catalog/domain"
)

// sortCounts orders city rows descending by venue count. Equal counts fall
// back to collated city id so the report order is stable across runs
func sortCounts(counts map[string]int) []domain.CityCount {
	rows := make([]domain.CityCount, 0, len(counts))
	for city, n := range counts {
		rows = append(rows, domain.CityCount{CityID: city, Venues: n})
	}

	coll := collate.New(language.Und)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Venues != rows[j].Venues {
			return rows[i].Venues > rows[j].Venues
		}
		return coll.CompareString(rows[i].CityID, rows[j].CityID) < 0
	})
	return rows
}
