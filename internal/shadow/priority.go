package shadow

// before reports whether a must be kept in preference to b when the atlas runs short.
// distances holds the squared camera distance per light index.
func before(a, b *TileRequest, distances []float32) bool {
	// Higher quality tiers first.
	if a.Requested != b.Requested {
		return a.Requested > b.Requested
	}
	// Soft shadows hide resolution loss better.
	if a.Soft != b.Soft {
		return !a.Soft
	}
	// A point light costs six tiles.
	if a.Point != b.Point {
		return !a.Point
	}
	if da, db := distances[a.LightIndex], distances[b.LightIndex]; da != db {
		return da < db
	}
	if a.LightIndex != b.LightIndex {
		return a.LightIndex < b.LightIndex
	}
	return a.Slice < b.Slice
}

// SortRequests orders requests from most to least important with a stable insertion sort.
// The request set is small and mostly ordered frame to frame, and the sort runs in place.
func SortRequests(reqs []TileRequest, distances []float32) {
	for i := 1; i < len(reqs); i++ {
		cur := reqs[i]
		j := i - 1
		for j >= 0 && before(&cur, &reqs[j], distances) {
			reqs[j+1] = reqs[j]
			j--
		}
		reqs[j+1] = cur
	}
}

// groupStart returns the index of the first request belonging to the same light as
// reqs[n-1]. Requests of one light are contiguous once sorted.
func groupStart(reqs []TileRequest, n int) int {
	if n <= 0 {
		return 0
	}
	light := reqs[n-1].LightIndex
	i := n - 1
	for i > 0 && reqs[i-1].LightIndex == light {
		i--
	}
	return i
}
