package demand

import (
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/freightledger/freightledger-backend/internal/ledger"
	"github.com/freightledger/freightledger-backend/internal/model"
	"github.com/freightledger/freightledger-backend/internal/oracle"
)

func newProcessor(t *testing.T) (*Processor, *oracle.Static, *ledger.Ledger) {
	t.Helper()

	chain := ledger.New(ledger.Config{Difficulty: 0, Seed: 1}, zap.NewNop())
	static := oracle.NewStatic()
	p := NewProcessor(chain, static, static, zap.NewNop())
	p.SetNow(func() time.Time { return time.Unix(1_700_000_000, 0) })
	return p, static, chain
}

func validRequest() Request {
	return Request{
		MerchantID:   "merchant-1",
		Weight:       12000,
		Volume:       30,
		Origin:       "Shanghai",
		Destination:  "Singapore",
		CargoType:    "general",
		DeliveryTime: "standard",
	}
}

func TestProcessor_Process(t *testing.T) {
	t.Parallel()

	p, _, chain := newProcessor(t)
	d, err := p.Process(validRequest())
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	// max(12000/1000, 30/3) = 12
	if d.BaseSTU != 12 {
		t.Errorf("base STU = %v", d.BaseSTU)
	}
	if d.AdjustedSTU != 12 {
		t.Errorf("adjusted STU = %v", d.AdjustedSTU)
	}
	if d.Distance != 4480 {
		t.Errorf("distance = %v", d.Distance)
	}
	if want := 12*4480*0.1 + 50 + 12*10; math.Abs(d.BaseCost-want) > 1e-9 {
		t.Errorf("base cost = %v, want %v", d.BaseCost, want)
	}
	if d.Status != model.DemandPending {
		t.Errorf("status = %q", d.Status)
	}
	if chain.PendingCount() != 1 {
		t.Errorf("demand not journaled")
	}
}

func TestProcessor_Process_volumeDominates(t *testing.T) {
	t.Parallel()

	p, _, _ := newProcessor(t)
	req := validRequest()
	req.Weight = 1000 // 1 STU by weight
	req.Volume = 60   // 20 STU by volume
	req.CargoType = "fragile"
	req.DeliveryTime = "express"

	d, err := p.Process(req)
	if err != nil {
		t.Fatal(err)
	}
	if d.BaseSTU != 20 {
		t.Errorf("base STU = %v", d.BaseSTU)
	}
	if want := 20 * 1.2 * 1.4; math.Abs(d.AdjustedSTU-want) > 1e-9 {
		t.Errorf("adjusted STU = %v, want %v", d.AdjustedSTU, want)
	}
}

func TestProcessor_Process_rejections(t *testing.T) {
	t.Parallel()

	p, static, _ := newProcessor(t)
	static.Deny("shady-merchant")

	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr error
	}{
		{name: "zero weight", mutate: func(r *Request) { r.Weight = 0 }, wantErr: ErrInvalidDimensions},
		{name: "negative volume", mutate: func(r *Request) { r.Volume = -1 }, wantErr: ErrInvalidDimensions},
		{name: "unknown cargo type", mutate: func(r *Request) { r.CargoType = "antimatter" }, wantErr: ErrUnknownCargoType},
		{name: "unknown time class", mutate: func(r *Request) { r.DeliveryTime = "yesterday" }, wantErr: ErrUnknownTimeClass},
		{name: "denied merchant", mutate: func(r *Request) { r.MerchantID = "shady-merchant" }, wantErr: ErrNotCompliant},
	}
	for _, tt := range tests {
		req := validRequest()
		tt.mutate(&req)
		if _, err := p.Process(req); !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestProcessor_buildCLP(t *testing.T) {
	t.Parallel()

	p, static, _ := newProcessor(t)

	tests := []struct {
		name      string
		items     []model.CLPItem
		wantValid bool
		denySys   bool
	}{
		{
			name:      "within limits",
			items:     []model.CLPItem{{Name: "boxes", Quantity: 10, Weight: 100, Volume: 2}},
			wantValid: true,
		},
		{
			name:  "over weight limit",
			items: []model.CLPItem{{Name: "steel", Quantity: 10, Weight: 3000, Volume: 1}},
		},
		{
			name:  "over volume limit",
			items: []model.CLPItem{{Name: "foam", Quantity: 10, Weight: 10, Volume: 7}},
		},
		{
			name:      "dangerous goods pass compliance",
			items:     []model.CLPItem{{Name: "batteries", Quantity: 1, Weight: 100, Volume: 1, Dangerous: true}},
			wantValid: true,
		},
		{
			name:    "dangerous goods blocked",
			items:   []model.CLPItem{{Name: "batteries", Quantity: 1, Weight: 100, Volume: 1, Dangerous: true}},
			denySys: true,
		},
	}
	for _, tt := range tests {
		if tt.denySys {
			static.Deny("system")
		}
		clp := p.buildCLP(tt.items)
		if clp.Valid != tt.wantValid {
			t.Errorf("%s: valid = %v, want %v", tt.name, clp.Valid, tt.wantValid)
		}
		if clp.Signature == "" || clp.Signature == "N/A" {
			t.Errorf("%s: missing signature", tt.name)
		}
	}
}

func TestProcessor_buildCLP_empty(t *testing.T) {
	t.Parallel()

	p, _, _ := newProcessor(t)
	clp := p.buildCLP(nil)
	if clp.Valid {
		t.Error("empty plan reported valid")
	}
	if clp.Signature != "N/A" {
		t.Errorf("signature = %q", clp.Signature)
	}
}

func TestProcessor_lifecycle(t *testing.T) {
	t.Parallel()

	p, _, _ := newProcessor(t)
	d, err := p.Process(validRequest())
	if err != nil {
		t.Fatal(err)
	}

	if err := p.UpdateStatus("missing", model.DemandBidding); !errors.Is(err, ErrUnknownDemand) {
		t.Fatalf("want ErrUnknownDemand, got %v", err)
	}
	if err := p.UpdateStatus(d.ID, model.DemandBidding); err != nil {
		t.Fatal(err)
	}
	if got := len(p.ListActive()); got != 1 {
		t.Errorf("active demands = %d", got)
	}

	if err := p.UpdateStatus(d.ID, model.DemandFulfilled); err != nil {
		t.Fatal(err)
	}
	if got := len(p.ListActive()); got != 0 {
		t.Errorf("fulfilled demand still active, %d listed", got)
	}

	total, active, totalSTU := p.Stats()
	if total != 1 || active != 0 || totalSTU != 12 {
		t.Errorf("stats = %d/%d/%v", total, active, totalSTU)
	}
}
