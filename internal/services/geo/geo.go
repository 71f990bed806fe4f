// Package geo holds the coordinate math shared by the video pipeline and the
// guessing game: great-circle distance, location similarity, and scoring.
package geo

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

const earthRadiusKM = 6371.0

// Similarity band: closer than 0.5 km is certainly the same place, farther
// than 5 km is certainly a different one.
const (
	sameLocationKM     = 0.5
	distinctLocationKM = 5.0
)

// ValidateCoordinates reports whether lat/lng form a usable coordinate pair.
// (0,0) is excluded: the vision API uses null island as "no data".
func ValidateCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return false
	}
	return !(lat == 0 && lng == 0)
}

// HaversineKM returns the great-circle distance between two points in km.
func HaversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(v float64) float64 { return v * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// Similarity maps the distance between two points into [0,1]: 1 below the
// same-location band, 0 above the distinct band, linear in between.
func Similarity(distanceKM float64) float64 {
	if distanceKM < sameLocationKM {
		return 1
	}
	if distanceKM > distinctLocationKM {
		return 0
	}
	return 1 - distanceKM/distinctLocationKM
}

// PointsForDistance is the GeoGuessr-style scoring table: 5000 for a
// sub-kilometre guess, stepping down to a 500-point floor.
func PointsForDistance(distanceKM float64) int {
	switch {
	case distanceKM < 1:
		return 5000
	case distanceKM < 10:
		return 4500
	case distanceKM < 50:
		return 4000
	case distanceKM < 100:
		return 3500
	case distanceKM < 250:
		return 3000
	case distanceKM < 500:
		return 2500
	case distanceKM < 1000:
		return 2000
	case distanceKM < 2000:
		return 1500
	case distanceKM < 5000:
		return 1000
	default:
		return 500
	}
}

// MapsURL builds a Google Maps search URL from whatever location parts are
// known. Empty parts are skipped.
func MapsURL(name, address, city, country string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{name, address, city, country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	query := url.QueryEscape(strings.Join(parts, ", "))
	return "https://www.google.com/maps/search/?api=1&query=" + query
}

// StreetViewURL builds a Street View panorama URL, or "" without coordinates.
func StreetViewURL(lat, lng float64) string {
	if !ValidateCoordinates(lat, lng) {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps/@?api=1&map_action=pano&viewpoint=%v,%v&heading=0&pitch=0&fov=80", lat, lng)
}
