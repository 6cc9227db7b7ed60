package geo

import "math"

// MaxLat is the latitude limit of the Web Mercator projection.
const MaxLat = 85.05112878

// TileInRange reports whether z/x/y addresses an existing Web Mercator tile.
func TileInRange(z, x, y int) bool {
	if z < 0 || z > 30 {
		return false
	}
	n := 1 << z
	return x >= 0 && x < n && y >= 0 && y < n
}

// TileToLonLat returns the north-west corner of a tile in WGS84.
func TileToLonLat(z, x, y int) (lon, lat float64) {
	n := float64(int(1) << z)
	lon = float64(x)/n*360.0 - 180.0

	// y: [0..n] -> mercatorY: [PI..-PI]
	mercatorY := math.Pi * (1 - 2*float64(y)/n)
	latRad := math.Atan(math.Sinh(mercatorY))
	lat = latRad * (180.0 / math.Pi)

	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	return lon, lat
}
