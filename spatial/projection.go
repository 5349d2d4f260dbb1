// SPDX-License-Identifier: MIT

package spatial

import "math"

// webMercatorMax is the half-width of the Web Mercator (EPSG:3857) square in
// meters. Latitudes beyond about ±85.06° fall outside the square.
const webMercatorMax = 20037508.34

// ToWebMercator projects a WGS84 (EPSG:4326) point to Web Mercator meters.
// GPS tracks come in WGS84; tiled web maps want Mercator.
func ToWebMercator(p Point) (x, y float64) {
	x = p.Lon * webMercatorMax / 180
	y = math.Log(math.Tan((90+p.Lat)*math.Pi/360)) / (math.Pi / 180) * webMercatorMax / 180
	return x, y
}

// FromWebMercator converts Web Mercator (EPSG:3857) meters back to a WGS84
// point. It inverts ToWebMercator within float tolerance.
func FromWebMercator(x, y float64) Point {
	lon := x * 180 / webMercatorMax
	lat := 360/math.Pi*math.Atan(math.Exp(y*math.Pi/webMercatorMax)) - 90
	return New(lat, lon)
}
