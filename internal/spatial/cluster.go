package spatial

import (
	"math"
	"strconv"
)

// DefaultClusterPrecision rounds coordinates to 3 decimal places,
// roughly a 100m grid cell at the equator
const DefaultClusterPrecision = 3

// ClusterKey buckets a coordinate pair into a fixed-precision grid cell
// and returns the cell as a string key, e.g. "19.076,72.878".
//
// Known limitation: two points on opposite sides of a rounding boundary
// land in different cells even when they are only metres apart. The
// precision is coarse enough that repeat visits to the same premises
// almost always share a cell, which is all the pattern tables need.
func ClusterKey(lat, lon float64, precision int) string {
	if precision < 0 {
		precision = DefaultClusterPrecision
	}
	return formatRounded(lat, precision) + "," + formatRounded(lon, precision)
}

// ClusterCenter returns the coordinates a cluster key was built from,
// i.e. the rounded values, not the cell center
func ClusterCenter(lat, lon float64, precision int) (float64, float64) {
	if precision < 0 {
		precision = DefaultClusterPrecision
	}
	factor := math.Pow(10, float64(precision))
	return math.Round(lat*factor) / factor, math.Round(lon*factor) / factor
}

func formatRounded(v float64, precision int) string {
	factor := math.Pow(10, float64(precision))
	rounded := math.Round(v*factor) / factor
	return strconv.FormatFloat(rounded, 'f', precision, 64)
}
