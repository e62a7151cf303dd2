// Package geofence decides whether a reported scan position is close enough to its checkpoint.
package geofence

import "math"

const (
	// EarthRadiusMeters is the mean Earth radius used for haversine distances.
	EarthRadiusMeters = 6371000.0

	// DefaultToleranceMeters covers GPS error plus standing distance from a fixed point.
	DefaultToleranceMeters = 50.0
)

// Result of a geofence check. DistanceMeters is rounded to whole metres and
// Verified is decided on that rounded value.
type Result struct {
	DistanceMeters float64 `json:"distance_meters"`
	Verified       bool    `json:"verified"`
}

// Verifier applies a fixed tolerance.
type Verifier struct {
	ToleranceMeters float64
}

// NewVerifier returns a Verifier; a non-positive tolerance falls back to the default.
func NewVerifier(toleranceMeters float64) Verifier {
	if toleranceMeters <= 0 || math.IsNaN(toleranceMeters) {
		toleranceMeters = DefaultToleranceMeters
	}
	return Verifier{ToleranceMeters: toleranceMeters}
}

// Verify measures the reported position against the checkpoint. Missing GPS is not
// detected here: (0,0) is a real coordinate and yields its real distance.
func (v Verifier) Verify(reportedLat, reportedLon, checkpointLat, checkpointLon float64) Result {
	tolerance := v.ToleranceMeters
	if tolerance <= 0 {
		tolerance = DefaultToleranceMeters
	}
	d := math.Round(Distance(reportedLat, reportedLon, checkpointLat, checkpointLon))
	return Result{DistanceMeters: d, Verified: d <= tolerance}
}

// Verify checks against DefaultToleranceMeters.
func Verify(reportedLat, reportedLon, checkpointLat, checkpointLon float64) Result {
	return NewVerifier(DefaultToleranceMeters).Verify(reportedLat, reportedLon, checkpointLat, checkpointLon)
}

// Distance returns the great-circle distance in metres between two points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Bearing returns the initial bearing from the first point to the second, in degrees [0,360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLon := toRadians(lon2 - lon1)

	y := math.Sin(deltaLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon)

	return math.Mod(toDegrees(math.Atan2(y, x))+360, 360)
}

// ValidCoordinates reports whether lat/lon are finite and within WGS84 bounds.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
