package oracle

import (
	"testing"

	"go.uber.org/zap"

	"github.com/freightledger/freightledger-backend/internal/model"
)

func TestStatic_Distance(t *testing.T) {
	t.Parallel()

	s := NewStatic()
	if got := s.Distance("Shanghai", "Singapore"); got != 4480 {
		t.Errorf("known lane = %v", got)
	}
	// Lanes answer in both directions.
	if got := s.Distance("Singapore", "Shanghai"); got != 4480 {
		t.Errorf("reversed lane = %v", got)
	}
	if got := s.Distance("Oslo", "Reykjavik"); got != s.FallbackDistance {
		t.Errorf("unknown lane = %v", got)
	}

	s.SetDistance("Oslo", "Reykjavik", 1730)
	if got := s.Distance("Oslo", "Reykjavik"); got != 1730 {
		t.Errorf("overridden lane = %v", got)
	}
}

func TestStatic_CarbonEstimate(t *testing.T) {
	t.Parallel()

	s := NewStatic()
	tests := []struct {
		mode model.TransportMode
		want float64
	}{
		{mode: model.ModeSea, want: 1000 * 10 * 0.015},
		{mode: model.ModeLand, want: 1000 * 10 * 0.065},
		{mode: model.ModeAir, want: 1000 * 10 * 0.5},
	}
	for _, tt := range tests {
		if got := s.CarbonEstimate(1000, tt.mode, 10); got != tt.want {
			t.Errorf("%s: carbon = %v, want %v", tt.mode, got, tt.want)
		}
	}
	if got := s.CarbonEstimate(1000, "teleport", 10); got != 0 {
		t.Errorf("unknown mode carbon = %v", got)
	}
}

func TestStatic_tracking(t *testing.T) {
	t.Parallel()

	s := NewStatic()
	if _, ok := s.CurrentStage("pay_1"); ok {
		t.Fatal("stage reported before any write")
	}
	s.SetStage("pay_1", model.StageCustoms)
	stage, ok := s.CurrentStage("pay_1")
	if !ok || stage != model.StageCustoms {
		t.Errorf("stage = %q %v", stage, ok)
	}
}

func TestStatic_compliance(t *testing.T) {
	t.Parallel()

	s := NewStatic()
	if !s.IsCompliant("anyone", 100, OpBidding) {
		t.Error("default compliance denied")
	}
	s.Deny("fraudster")
	if s.IsCompliant("fraudster", 1, OpPayment) {
		t.Error("denied actor passed compliance")
	}
}

func TestRandomized_Distance_memoized(t *testing.T) {
	t.Parallel()

	r := NewRandomized(7, nil, zap.NewNop())
	if got := r.Distance("Shanghai", "Singapore"); got != 4480 {
		t.Errorf("known lane = %v", got)
	}

	first := r.Distance("Oslo", "Reykjavik")
	if first < 500 || first > 7000 {
		t.Errorf("simulated distance out of range: %v", first)
	}
	if second := r.Distance("Oslo", "Reykjavik"); second != first {
		t.Errorf("repeated query changed: %v != %v", second, first)
	}
}

func TestRandomized_seedDeterminism(t *testing.T) {
	t.Parallel()

	a := NewRandomized(7, nil, zap.NewNop())
	b := NewRandomized(7, nil, zap.NewNop())
	if a.Distance("A", "B") != b.Distance("A", "B") {
		t.Error("same seed produced different distances")
	}
	if a.CarbonEstimate(1000, model.ModeSea, 10) != b.CarbonEstimate(1000, model.ModeSea, 10) {
		t.Error("same seed produced different carbon estimates")
	}
}

func TestRandomized_CarbonEstimate_bounds(t *testing.T) {
	t.Parallel()

	r := NewRandomized(7, nil, zap.NewNop())
	for i := 0; i < 100; i++ {
		got := r.CarbonEstimate(1000, model.ModeSea, 10)
		// factor in [0.01, 0.02], weather in {1.0, 1.2, 1.5}
		if got < 1000*10*0.01 || got > 1000*10*0.02*1.5 {
			t.Fatalf("carbon estimate out of bounds: %v", got)
		}
	}
	if got := r.CarbonEstimate(1000, "teleport", 10); got != 0 {
		t.Errorf("unknown mode carbon = %v", got)
	}
}

type fixedCredit float64

func (f fixedCredit) CreditScore(string) float64 { return float64(f) }

func TestRandomized_compliance(t *testing.T) {
	t.Parallel()

	r := NewRandomized(7, fixedCredit(6.5), zap.NewNop())
	if !r.IsCompliant("carrier-1", 100, OpBidding) {
		t.Error("randomized compliance denied")
	}
	// nil credit source is allowed
	r = NewRandomized(7, nil, zap.NewNop())
	if !r.IsCompliant("carrier-1", 100, OpBidding) {
		t.Error("nil credit source denied")
	}
}
