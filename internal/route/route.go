package route

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/iwatkot/fatracingbot/internal/shared/geo"
)

var (
	// ErrNotFound is returned when no prepared track exists for a race code.
	ErrNotFound = errors.New("route not found")
	// ErrEmptyRoute is returned when a route carries no points.
	ErrEmptyRoute = errors.New("route has no points")
)

// Point is a single vertex of the course polyline. Order is significant.
type Point struct {
	Lat float64
	Lon float64
}

// Route is the immutable ordered course polyline for one race.
type Route struct {
	Code   string
	Points []Point
}

// Load reads the prepared track file <dir>/<raceCode>.json, a JSON array
// of [lat, lon] pairs produced by the course import pipeline.
func Load(dir, raceCode string) (Route, error) {
	path := filepath.Join(dir, raceCode+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Route{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Route{}, err
	}

	var pairs [][2]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return Route{}, fmt.Errorf("parse track %s: %w", path, err)
	}
	if len(pairs) == 0 {
		return Route{}, fmt.Errorf("%w: %s", ErrEmptyRoute, path)
	}

	points := make([]Point, len(pairs))
	for i, pair := range pairs {
		points[i] = Point{Lat: pair[0], Lon: pair[1]}
	}
	return Route{Code: raceCode, Points: points}, nil
}

// Project returns the distance along the route, in kilometers rounded to
// two decimals, up to the vertex nearest the given fix. The search is a
// global nearest-vertex scan with no interpolation within the matched
// segment, so the distance snaps to the floor vertex.
func Project(r Route, lat, lon float64) (float64, error) {
	if len(r.Points) == 0 {
		return 0, ErrEmptyRoute
	}

	nearest := 0
	best := math.MaxFloat64
	for i, p := range r.Points {
		d := geo.HaversineKm(lat, lon, p.Lat, p.Lon)
		if d < best {
			best = d
			nearest = i
		}
	}

	var total float64
	for i := 0; i < nearest; i++ {
		p1 := r.Points[i]
		p2 := r.Points[i+1]
		total += geo.HaversineKm(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
	}

	return round2(total), nil
}

// Length returns the full cumulative length of the route in kilometers,
// rounded to two decimals.
func Length(r Route) (float64, error) {
	if len(r.Points) == 0 {
		return 0, ErrEmptyRoute
	}

	var total float64
	for i := 0; i < len(r.Points)-1; i++ {
		p1 := r.Points[i]
		p2 := r.Points[i+1]
		total += geo.HaversineKm(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
	}
	return round2(total), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
