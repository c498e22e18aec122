// Package valuation derives a task's value score, category tier and
// required collateral from its parameters and the creator's reputation.
//
// score = rewardW·(reward/unit) + revisionW·maxRevision
//       − reputationW·reputation − deadlineW·deadlineHours, floored at 0.
//
// The score is bucketed into one of six ordered categories by ascending
// thresholds; the category maps to a fixed creator stake tier. The member
// stake is a flat percentage of the reward, independent of category.
// All functions are pure.
package valuation

import (
	"github.com/workstake-network/workstake/internal/domain"
	"github.com/workstake-network/workstake/internal/app/params"
)

// Score computes the weighted value score of a task, floored at zero.
func Score(p params.Params, deadlineHours int64, maxRevision int, reward, reputation int64) int64 {
	rewardUnits := reward / p.RewardUnit
	score := p.RewardWeight*rewardUnits +
		p.RevisionWeight*int64(maxRevision) -
		p.ReputationWeight*reputation -
		p.DeadlineWeight*deadlineHours
	if score < 0 {
		return 0
	}
	return score
}

// Categorize maps a score to the highest category whose threshold it meets.
// Thresholds[0] is 0, so every score lands in a bucket.
func Categorize(p params.Params, score int64) domain.ValueCategory {
	cat := domain.CategoryLow
	for i := 0; i < domain.NumCategories; i++ {
		if score >= p.Thresholds[i] {
			cat = domain.ValueCategory(i)
		}
	}
	return cat
}

// CreatorStake returns the required creator stake for a category.
func CreatorStake(p params.Params, cat domain.ValueCategory) int64 {
	if cat < 0 || int(cat) >= domain.NumCategories {
		cat = domain.CategoryLow
	}
	return p.StakeTiers[cat]
}

// MemberStake returns the required member stake for a reward.
func MemberStake(p params.Params, reward int64) int64 {
	return reward * p.MemberStakePercent / 100
}

// Appraise computes category and required creator stake in one pass.
func Appraise(p params.Params, deadlineHours int64, maxRevision int, reward, reputation int64) (domain.ValueCategory, int64) {
	cat := Categorize(p, Score(p, deadlineHours, maxRevision, reward, reputation))
	return cat, CreatorStake(p, cat)
}
