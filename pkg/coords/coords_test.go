package coords

import (
	"math"
	"testing"
)

func TestDistance_KnownSeparation(t *testing.T) {
	paris := Point{Lat: 48.8566, Lon: 2.3522}
	london := Point{Lat: 51.5074, Lon: -0.1278}

	km := Distance(paris, london)
	if km < 340 || km > 347 {
		t.Fatalf("Distance(Paris, London) = %.1f km, want ~344", km)
	}
	if d := Distance(paris, paris); d != 0 {
		t.Errorf("Distance(p, p) = %f, want 0", d)
	}
}

func TestDedupe(t *testing.T) {
	base := Point{Lat: 48.8584, Lon: 2.2945}
	near := Point{Lat: 48.8593, Lon: 2.2945} // ~100 m north
	far := Point{Lat: 48.8604, Lon: 2.2945}  // ~220 m north

	cases := []struct {
		name    string
		in      []Candidate
		epsilon float64
		want    int
	}{
		{
			name:    "near duplicate dropped",
			in:      []Candidate{{Point: base, Label: "Primary"}, {Point: near, Label: "Alternative 1"}},
			epsilon: 150,
			want:    1,
		},
		{
			name:    "distinct points kept",
			in:      []Candidate{{Point: base, Label: "Primary"}, {Point: far, Label: "Alternative 1"}},
			epsilon: 150,
			want:    2,
		},
		{
			name:    "empty input",
			in:      nil,
			epsilon: 150,
			want:    0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Dedupe(tc.in, tc.epsilon)
			if len(got) != tc.want {
				t.Fatalf("Dedupe kept %d candidates, want %d", len(got), tc.want)
			}
			if tc.want > 0 && got[0].Label != "Primary" {
				t.Errorf("first survivor = %q, want the primary", got[0].Label)
			}
		})
	}
}

func TestConsensus(t *testing.T) {
	eiffel := Point{Lat: 48.8584, Lon: 2.2945}
	louvre := Point{Lat: 48.8606, Lon: 2.3376}
	manhattan := Point{Lat: 40.7580, Lon: -73.9855}

	t.Run("majority cluster wins over outlier", func(t *testing.T) {
		got, ok := Consensus([]Point{eiffel, louvre, manhattan}, 5)
		if !ok {
			t.Fatal("Consensus returned ok=false")
		}
		wantLat := (eiffel.Lat + louvre.Lat) / 2
		wantLon := (eiffel.Lon + louvre.Lon) / 2
		if math.Abs(got.Lat-wantLat) > 1e-9 || math.Abs(got.Lon-wantLon) > 1e-9 {
			t.Errorf("Consensus = %v, want %v, %v", got, wantLat, wantLon)
		}
	})

	t.Run("no agreement", func(t *testing.T) {
		tokyo := Point{Lat: 35.6595, Lon: 139.7005}
		if _, ok := Consensus([]Point{eiffel, manhattan, tokyo}, 5); ok {
			t.Fatal("Consensus agreed on three scattered points")
		}
	})

	t.Run("single point passes through", func(t *testing.T) {
		got, ok := Consensus([]Point{eiffel}, 5)
		if !ok || got != eiffel {
			t.Fatalf("Consensus single = %v ok=%v", got, ok)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, ok := Consensus(nil, 5); ok {
			t.Fatal("Consensus of nothing returned ok=true")
		}
	})
}

func TestPairwiseDistances(t *testing.T) {
	cands := []Candidate{
		{Point: Point{Lat: 48.8584, Lon: 2.2945}, Label: "Primary"},
		{Point: Point{Lat: 48.8606, Lon: 2.3376}, Label: "Alternative 1"},
		{Point: Point{Lat: 48.8738, Lon: 2.2950}, Label: "Alternative 2"},
	}

	got := PairwiseDistances(cands)
	if len(got) != 3 {
		t.Fatalf("PairwiseDistances returned %d pairs, want 3", len(got))
	}
	if got[0].From != "Primary" || got[0].To != "Alternative 1" {
		t.Errorf("first pair = %s -> %s", got[0].From, got[0].To)
	}
	for _, d := range got {
		if d.Km <= 0 || d.Km > 10 {
			t.Errorf("%s -> %s distance %.2f km out of expected range", d.From, d.To, d.Km)
		}
		wantMiles := math.Round(d.Km*0.621371*100) / 100
		if math.Abs(d.Miles-wantMiles) > 0.02 {
			t.Errorf("miles = %.2f, want %.2f", d.Miles, wantMiles)
		}
	}

	if PairwiseDistances(cands[:1]) != nil {
		t.Error("single candidate should produce no pairs")
	}
}

func TestPointValid(t *testing.T) {
	cases := []struct {
		p    Point
		want bool
	}{
		{Point{0, 0}, true},
		{Point{90, 180}, true},
		{Point{-90, -180}, true},
		{Point{90.0001, 0}, false},
		{Point{0, -180.5}, false},
	}
	for _, tc := range cases {
		if got := tc.p.Valid(); got != tc.want {
			t.Errorf("Valid(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}
