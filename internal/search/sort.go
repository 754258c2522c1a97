package search

import "sort"

// SortResults sorts results by distance (ascending). Equal distances keep
// their relative order.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
}
