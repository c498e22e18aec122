package params

import "testing"

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	p := Default()
	p.RewardWeight = 50 // Sum now 110
	if err := p.Validate(); err == nil {
		t.Error("expected error for weights not summing to 100")
	}

	p = Default()
	p.RewardWeight = 120
	p.ReputationWeight = -20
	if err := p.Validate(); err == nil {
		t.Error("expected error for negative weight")
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	p := Default()
	p.Thresholds[0] = 10
	if err := p.Validate(); err == nil {
		t.Error("expected error for thresholds[0] != 0")
	}

	p = Default()
	p.Thresholds[3] = p.Thresholds[2] // Not strictly ascending
	if err := p.Validate(); err == nil {
		t.Error("expected error for non-ascending thresholds")
	}
}

func TestValidateRejectsBadPercentages(t *testing.T) {
	p := Default()
	p.FeePercent = 101
	if err := p.Validate(); err == nil {
		t.Error("expected error for fee_percent > 100")
	}

	p = Default()
	p.NegPenaltyPercent = -1
	if err := p.Validate(); err == nil {
		t.Error("expected error for negative neg_penalty_percent")
	}
}

func TestValidateRejectsZeroStakeTier(t *testing.T) {
	p := Default()
	p.StakeTiers[2] = 0
	if err := p.Validate(); err == nil {
		t.Error("expected error for zero stake tier")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	p := Default()
	p.FeePercent = 7
	p.MaxRevision = 3

	blob, err := p.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML: %v", err)
	}
	got, err := FromYAML(blob)
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	if got != p {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, p)
	}
}

func TestFromYAMLValidates(t *testing.T) {
	p := Default()
	p.RewardWeight = 99 // Breaks the weight sum
	blob, err := p.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML: %v", err)
	}
	if _, err := FromYAML(blob); err == nil {
		t.Error("expected FromYAML to reject invalid params")
	}
}

func TestStoreSetValidates(t *testing.T) {
	s, err := NewStore(Default())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	bad := Default()
	bad.MaxStake = 0
	if err := s.Set(bad); err == nil {
		t.Error("expected Set to reject invalid params")
	}
	if got := s.Get(); got != Default() {
		t.Error("failed Set must not change the stored params")
	}

	good := Default()
	good.FeePercent = 10
	if err := s.Set(good); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if s.Get().FeePercent != 10 {
		t.Error("Set did not apply")
	}
}

func TestNewStoreRejectsInvalid(t *testing.T) {
	bad := Default()
	bad.RewardUnit = 0
	if _, err := NewStore(bad); err == nil {
		t.Error("expected NewStore to reject invalid params")
	}
}
