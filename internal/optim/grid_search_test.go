package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/balancer/internal/config"
	"github.com/san-kum/balancer/internal/experiment"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		in   string
		want []float64
	}{
		{"1:3:1", []float64{1, 2, 3}},
		{"0:1:0.25", []float64{0, 0.25, 0.5, 0.75, 1}},
		{"5", []float64{5}},
		{"1, 10,100", []float64{1, 10, 100}},
	}

	for _, tt := range tests {
		got, err := ParseRange(tt.in)
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("%q: got %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%q: got %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}

func TestParseRange_Errors(t *testing.T) {
	for _, in := range []string{"", "a,b", "1:2", "3:1:1", "0:1:0", "0:1:-1"} {
		if _, err := ParseRange(in); !errors.Is(err, ErrBadRange) {
			t.Errorf("%q: expected ErrBadRange, got %v", in, err)
		}
	}
}

func TestNewGridSearch_Errors(t *testing.T) {
	if _, err := NewGridSearch([]string{"gain"}, nil); err == nil {
		t.Error("expected error for mismatched ranges")
	}
	if _, err := NewGridSearch([]string{"gain"}, [][]float64{{}}); err == nil {
		t.Error("expected error for empty range")
	}
}

func TestPoints(t *testing.T) {
	g, err := NewGridSearch([]string{"gain", "bound"}, [][]float64{{1, 2}, {10, 20, 30}})
	if err != nil {
		t.Fatal(err)
	}

	points := g.Points()
	if len(points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(points))
	}
	if points[0]["gain"] != 1 || points[0]["bound"] != 10 {
		t.Errorf("unexpected first point %v", points[0])
	}
	if points[1]["gain"] != 1 || points[1]["bound"] != 20 {
		t.Errorf("last param should vary fastest, got %v", points[1])
	}
	if points[5]["gain"] != 2 || points[5]["bound"] != 30 {
		t.Errorf("unexpected last point %v", points[5])
	}
}

func TestSearch_Bound(t *testing.T) {
	base := config.GetPreset("cartpole", "balance")
	base.Duration = 2

	g, err := NewGridSearch([]string{"bound"}, [][]float64{{0, 1, 50}})
	if err != nil {
		t.Fatal(err)
	}

	best, evals, err := g.WithWorkers(2).Search(
		context.Background(),
		ConfigBuilder(base, experiment.NewRegistry(), nil),
		Objective{Metric: "saturation"},
	)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(evals) != 3 {
		t.Fatalf("expected 3 evaluations, got %d", len(evals))
	}
	if evals[0].Err == nil {
		t.Error("bound 0 should fail to build")
	}
	if best.Params["bound"] != 50 {
		t.Errorf("widest bound should saturate least, got %v (score %v)", best.Params, best.Score)
	}
}

func TestNewObjective_Direction(t *testing.T) {
	tests := []struct {
		metric   string
		maximize bool
	}{
		{"stability", true},
		{"control_effort", false},
		{"saturation", false},
		{"tracking_rms", false},
	}
	for _, tt := range tests {
		if got := NewObjective(tt.metric); got.Maximize != tt.maximize {
			t.Errorf("NewObjective(%q).Maximize = %v, want %v", tt.metric, got.Maximize, tt.maximize)
		}
	}
}

func TestSearch_StabilityPrefersBalancingGain(t *testing.T) {
	base := config.GetPreset("platform", "bangbang")

	gs, err := NewGridSearch([]string{"gain"}, [][]float64{{10, 30, 50}})
	if err != nil {
		t.Fatal(err)
	}
	best, _, err := gs.Search(context.Background(),
		ConfigBuilder(base, experiment.NewRegistry(), nil),
		NewObjective("stability"))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if best.Params["gain"] != 10 {
		t.Errorf("expected gain 10 to balance best, got %v (stability %.3f)", best.Params["gain"], best.Score)
	}
}

func TestSearch_NoCandidates(t *testing.T) {
	g, err := NewGridSearch([]string{"bound"}, [][]float64{{-1, 0}})
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = g.Search(context.Background(),
		ConfigBuilder(config.DefaultConfig(), experiment.NewRegistry(), nil),
		Objective{Metric: "stability", Maximize: true})
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}
}

func TestSearch_UnknownMetric(t *testing.T) {
	base := config.DefaultConfig()
	base.Duration = 0.1

	g, err := NewGridSearch([]string{"gain"}, [][]float64{{10}})
	if err != nil {
		t.Fatal(err)
	}

	_, evals, err := g.Search(context.Background(),
		ConfigBuilder(base, experiment.NewRegistry(), nil),
		Objective{Metric: "energy"})
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}
	if len(evals) != 1 || evals[0].Err == nil {
		t.Errorf("expected a failed evaluation, got %+v", evals)
	}
}
