package geo

import (
	"errors"
	"math"
	"testing"
)

func TestDecodeCollection(t *testing.T) {
	c, err := DecodeCollection([]byte(`{"type":"FeatureCollection","features":[{"a":1},{"b":2}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(c.Features))
	}
}

func TestDecodeCollection_WrongType(t *testing.T) {
	_, err := DecodeCollection([]byte(`{"type":"Feature","geometry":null}`))
	if !errors.Is(err, ErrNotCollection) {
		t.Fatalf("expected ErrNotCollection, got %v", err)
	}
}

func TestDecodeCollection_Garbage(t *testing.T) {
	if _, err := DecodeCollection([]byte(`<html>`)); err == nil {
		t.Fatal("expected error")
	}
}

func TestFeatureAccessors(t *testing.T) {
	f := Feature{Properties: map[string]any{"mag": 4.2, "place": "here", "bad": "x", "empty": nil}}

	if !f.Null("empty") || f.Null("missing") || f.Null("mag") {
		t.Error("Null should only hold for present null properties")
	}

	if v, ok := f.Number("mag"); !ok || v != 4.2 {
		t.Errorf("Number(mag) = %v, %v", v, ok)
	}
	if _, ok := f.Number("bad"); ok {
		t.Error("Number(bad) should fail on a string")
	}
	if v, ok := f.Text("place"); !ok || v != "here" {
		t.Errorf("Text(place) = %v, %v", v, ok)
	}
	if _, ok := f.Text("missing"); ok {
		t.Error("Text(missing) should fail")
	}
}

func TestTileInRange(t *testing.T) {
	cases := []struct {
		z, x, y int
		want    bool
	}{
		{0, 0, 0, true},
		{0, 1, 0, false},
		{5, 31, 31, true},
		{5, 32, 0, false},
		{5, -1, 0, false},
		{-1, 0, 0, false},
		{31, 0, 0, false},
	}
	for _, c := range cases {
		if got := TileInRange(c.z, c.x, c.y); got != c.want {
			t.Errorf("TileInRange(%d,%d,%d) = %v, want %v", c.z, c.x, c.y, got, c.want)
		}
	}
}

func TestTileToLonLat(t *testing.T) {
	lon, lat := TileToLonLat(0, 0, 0)
	if lon != -180 || math.Abs(lat-MaxLat) > 1e-6 {
		t.Errorf("z0 corner = %v, %v", lon, lat)
	}

	lon, lat = TileToLonLat(1, 1, 1)
	if lon != 0 || math.Abs(lat) > 1e-9 {
		t.Errorf("z1 center = %v, %v", lon, lat)
	}
}
