// Package params holds the economic parameters of the marketplace:
// valuation weights, category thresholds, stake tiers, reputation deltas
// and penalty percentages. The store is an injected read-only dependency
// of every component — never global state — and may only be mutated by
// the owner through the market engine.
package params

import (
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/workstake-network/workstake/internal/domain"
)

// WeightTotal is the fixed sum the four valuation weights must reach.
const WeightTotal = 100

// Params is the full economic parameter set. Amounts are int64 base units,
// percentages are whole numbers in [0, 100].
type Params struct {
	// Valuation weights (must sum to WeightTotal).
	RewardWeight     int64 `toml:"reward_weight" yaml:"reward_weight" json:"reward_weight"`
	ReputationWeight int64 `toml:"reputation_weight" yaml:"reputation_weight" json:"reputation_weight"`
	DeadlineWeight   int64 `toml:"deadline_weight" yaml:"deadline_weight" json:"deadline_weight"`
	RevisionWeight   int64 `toml:"revision_weight" yaml:"revision_weight" json:"revision_weight"`

	// Ascending score thresholds for the six categories; Thresholds[0]
	// must be 0 so every score lands in a bucket.
	Thresholds [domain.NumCategories]int64 `toml:"thresholds" yaml:"thresholds" json:"thresholds"`

	// Required creator stake per category.
	StakeTiers [domain.NumCategories]int64 `toml:"stake_tiers" yaml:"stake_tiers" json:"stake_tiers"`

	MemberStakePercent int64 `toml:"member_stake_percent" yaml:"member_stake_percent" json:"member_stake_percent"`
	FeePercent         int64 `toml:"fee_percent" yaml:"fee_percent" json:"fee_percent"`
	NegPenaltyPercent  int64 `toml:"neg_penalty_percent" yaml:"neg_penalty_percent" json:"neg_penalty_percent"`

	// Reputation deltas applied by lifecycle transitions.
	CancelPenalty          int64 `toml:"cancel_penalty" yaml:"cancel_penalty" json:"cancel_penalty"`
	RevisionPenalty        int64 `toml:"revision_penalty" yaml:"revision_penalty" json:"revision_penalty"`
	AcceptCreatorBonus     int64 `toml:"accept_creator_bonus" yaml:"accept_creator_bonus" json:"accept_creator_bonus"`
	AcceptMemberBonus      int64 `toml:"accept_member_bonus" yaml:"accept_member_bonus" json:"accept_member_bonus"`
	DeadlineCreatorPenalty int64 `toml:"deadline_creator_penalty" yaml:"deadline_creator_penalty" json:"deadline_creator_penalty"`
	DeadlineMemberPenalty  int64 `toml:"deadline_member_penalty" yaml:"deadline_member_penalty" json:"deadline_member_penalty"`

	MaxStake          int64 `toml:"max_stake" yaml:"max_stake" json:"max_stake"`
	MaxRevision       int   `toml:"max_revision" yaml:"max_revision" json:"max_revision"`
	InitialReputation int64 `toml:"initial_reputation" yaml:"initial_reputation" json:"initial_reputation"`

	// RewardUnit scales reward amounts into score units for valuation.
	RewardUnit int64 `toml:"reward_unit" yaml:"reward_unit" json:"reward_unit"`
}

// Default returns production defaults.
func Default() Params {
	return Params{
		RewardWeight:     40,
		ReputationWeight: 20,
		DeadlineWeight:   20,
		RevisionWeight:   20,

		Thresholds: [domain.NumCategories]int64{0, 50, 150, 400, 1000, 2500},
		StakeTiers: [domain.NumCategories]int64{100, 200, 500, 1200, 3000, 8000},

		MemberStakePercent: 50,
		FeePercent:         5,
		NegPenaltyPercent:  20,

		CancelPenalty:          3,
		RevisionPenalty:        1,
		AcceptCreatorBonus:     1,
		AcceptMemberBonus:      2,
		DeadlineCreatorPenalty: 2,
		DeadlineMemberPenalty:  4,

		MaxStake:          100000,
		MaxRevision:       5,
		InitialReputation: 10,

		RewardUnit: 100,
	}
}

// Validate checks internal consistency.
func (p Params) Validate() error {
	sum := p.RewardWeight + p.ReputationWeight + p.DeadlineWeight + p.RevisionWeight
	if sum != WeightTotal {
		return fmt.Errorf("valuation weights sum to %d, want %d", sum, WeightTotal)
	}
	for _, w := range []int64{p.RewardWeight, p.ReputationWeight, p.DeadlineWeight, p.RevisionWeight} {
		if w < 0 {
			return fmt.Errorf("negative valuation weight %d", w)
		}
	}
	if p.Thresholds[0] != 0 {
		return fmt.Errorf("thresholds[0] = %d, must be 0", p.Thresholds[0])
	}
	for i := 1; i < domain.NumCategories; i++ {
		if p.Thresholds[i] <= p.Thresholds[i-1] {
			return fmt.Errorf("thresholds not ascending at index %d", i)
		}
	}
	for i, tier := range p.StakeTiers {
		if tier <= 0 {
			return fmt.Errorf("stake tier %d must be positive, got %d", i, tier)
		}
	}
	for name, pct := range map[string]int64{
		"member_stake_percent": p.MemberStakePercent,
		"fee_percent":          p.FeePercent,
		"neg_penalty_percent":  p.NegPenaltyPercent,
	} {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("%s = %d, must be in [0, 100]", name, pct)
		}
	}
	for name, v := range map[string]int64{
		"cancel_penalty":           p.CancelPenalty,
		"revision_penalty":         p.RevisionPenalty,
		"accept_creator_bonus":     p.AcceptCreatorBonus,
		"accept_member_bonus":      p.AcceptMemberBonus,
		"deadline_creator_penalty": p.DeadlineCreatorPenalty,
		"deadline_member_penalty":  p.DeadlineMemberPenalty,
		"initial_reputation":       p.InitialReputation,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, v)
		}
	}
	if p.MaxStake <= 0 {
		return fmt.Errorf("max_stake must be positive, got %d", p.MaxStake)
	}
	if p.MaxRevision < 0 {
		return fmt.Errorf("max_revision must be non-negative, got %d", p.MaxRevision)
	}
	if p.RewardUnit <= 0 {
		return fmt.Errorf("reward_unit must be positive, got %d", p.RewardUnit)
	}
	return nil
}

// MarshalYAML-compatible export for ops tooling.

// ToYAML serializes the parameter set.
func (p Params) ToYAML() ([]byte, error) {
	return yaml.Marshal(p)
}

// FromYAML parses and validates a parameter set.
func FromYAML(data []byte) (Params, error) {
	var p Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("parse params yaml: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// ─── Store ──────────────────────────────────────────────────────────────────

// Store holds the live parameter set. Reads are lock-free copies;
// Set swaps the whole set after validation.
type Store struct {
	mu sync.RWMutex
	p  Params
}

// NewStore validates and wraps a parameter set.
func NewStore(p Params) (*Store, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	return &Store{p: p}, nil
}

// Get returns a copy of the current parameters.
func (s *Store) Get() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

// Set replaces the parameter set after validation.
func (s *Store) Set(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p = p
	return nil
}
