package model

import "testing"

func TestCoordinates_Valid(t *testing.T) {
	tests := []struct {
		c    Coordinates
		want bool
	}{
		{Coordinates{28.5, -80.6}, true},
		{Coordinates{90, 180}, true},
		{Coordinates{-90, -180}, true},
		{Coordinates{90.1, 0}, false},
		{Coordinates{0, -180.5}, false},
	}
	for _, tt := range tests {
		if got := tt.c.Valid(); got != tt.want {
			t.Errorf("%v.Valid() = %v, want %v", tt.c, got, tt.want)
		}
	}
}

// TestCoordinates_String は指数表記を使わず "lat,lon" で書き出すことを検証する。
func TestCoordinates_String(t *testing.T) {
	tests := []struct {
		c    Coordinates
		want string
	}{
		{Coordinates{Latitude: 28.5618571, Longitude: -80.577366}, "28.5618571,-80.577366"},
		{Coordinates{Latitude: 0.00001, Longitude: -0.000002}, "0.00001,-0.000002"},
		{Coordinates{Latitude: 0, Longitude: 120}, "0,120"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// TestRegion_Contains は表示領域の包含判定（境界を含む）を検証する。
func TestRegion_Contains(t *testing.T) {
	r := Region{Latitude: 10, Longitude: 20, LatitudeDelta: 2, LongitudeDelta: 4}

	inside := []Coordinates{{10, 20}, {11, 22}, {9, 18}}
	for _, c := range inside {
		if !r.Contains(c) {
			t.Errorf("Contains(%v) = false, want true", c)
		}
	}

	outside := []Coordinates{{11.01, 20}, {10, 17.9}}
	for _, c := range outside {
		if r.Contains(c) {
			t.Errorf("Contains(%v) = true, want false", c)
		}
	}

	sw, ne := r.Bounds()
	if sw != (Coordinates{9, 18}) || ne != (Coordinates{11, 22}) {
		t.Errorf("Bounds() = %v, %v", sw, ne)
	}
}
