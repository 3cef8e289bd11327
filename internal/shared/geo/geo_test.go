package geo

import "testing"

func TestHaversineKm(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := HaversineKm(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestHaversineKmZero(t *testing.T) {
	if d := HaversineKm(55.75, 37.61, 55.75, 37.61); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}

func TestHaversineKmOneDegreeLongitudeAtEquator(t *testing.T) {
	// One degree of longitude on the equator ~ 111.19 km.
	d := HaversineKm(0, 0, 0, 1)
	if d < 111 || d > 112 {
		t.Fatalf("unexpected distance: %v", d)
	}
}
