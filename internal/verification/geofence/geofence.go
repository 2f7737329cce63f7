// Package geofence decides whether a reported position lies inside any of a
// patient's circular zones.
package geofence

import (
	"math"

	"doseguard/internal/verification/models"
)

// EarthRadiusMeters is the mean radius of the spherical Earth model.
const EarthRadiusMeters = 6_371_000.0

// Result is the outcome of a geofence check. NearestDistanceMeters is +Inf
// when there were no zones to measure against.
type Result struct {
	Verdict               models.FactorVerdict
	WithinAnyZone         bool
	NearestDistanceMeters float64
	MatchedZone           *models.Zone
	ZonesEvaluated        int
}

// Evaluate checks point against zones. A nil point yields an unavailable
// verdict. An empty zone list fails closed.
//
// When several zones qualify the nearest qualifying zone is reported. When
// none qualify the nearest zone overall is reported for diagnostics only.
func Evaluate(point *models.Point, zones []models.Zone) Result {
	if point == nil {
		return Result{
			Verdict:               models.VerdictUnavailable,
			NearestDistanceMeters: math.Inf(1),
			ZonesEvaluated:        len(zones),
		}
	}

	res := Result{
		Verdict:               models.VerdictFailed,
		NearestDistanceMeters: math.Inf(1),
		ZonesEvaluated:        len(zones),
	}
	bestQualifying := math.Inf(1)
	for i := range zones {
		d := Distance(*point, zones[i].Center)
		if d < res.NearestDistanceMeters && !res.WithinAnyZone {
			res.NearestDistanceMeters = d
		}
		if d <= zones[i].RadiusMeters && d < bestQualifying {
			bestQualifying = d
			zone := zones[i]
			res.MatchedZone = &zone
			res.WithinAnyZone = true
			res.NearestDistanceMeters = d
		}
	}
	if res.WithinAnyZone {
		res.Verdict = models.VerdictPassed
	}
	return res
}

// Distance is the haversine great-circle distance in meters.
func Distance(a, b models.Point) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := lat2 - lat1
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Min(1, h)
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Check converts r into its ledger form.
func (r Result) Check() models.LocationCheck {
	check := models.LocationCheck{
		Verdict:        r.Verdict,
		WithinAnyZone:  r.WithinAnyZone,
		MatchedZone:    r.MatchedZone,
		ZonesEvaluated: r.ZonesEvaluated,
	}
	if !math.IsInf(r.NearestDistanceMeters, 0) {
		d := r.NearestDistanceMeters
		check.NearestDistanceMeters = &d
	}
	return check
}
