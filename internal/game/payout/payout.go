package payout

import "math"

// 兑现曲线分段
const (
	tier1Cap = 60
	tier2Cap = 120
	tier3Cap = 200

	tier2Base = 60
	tier3Base = 111
	tier4Base = 167

	tier2Rate = 85 // 百分比
	tier3Rate = 70
)

// CashOut 将积分兑换为月岩，边际收益随积分递减
func CashOut(points int) int {
	switch {
	case points <= 0:
		return 0
	case points <= tier1Cap:
		return points
	case points <= tier2Cap:
		return tier2Base + ceilPercent(points-tier1Cap, tier2Rate)
	case points <= tier3Cap:
		return tier3Base + ceilPercent(points-tier2Cap, tier3Rate)
	default:
		return tier4Base + (points-tier3Cap+1)/2
	}
}

// ceilPercent 返回 ceil(x * pct / 100)
func ceilPercent(x, pct int) int {
	return (x*pct + 99) / 100
}

// 奖励曲线参数
const (
	RewardBase     = 1.6
	BreakEvenLevel = 14
	MaxRewardLevel = 20
)

// RewardMultiplier 使 BreakEvenLevel 层的奖励恰好等于入场费的系数
func RewardMultiplier(entryCost int) float64 {
	return float64(entryCost) / math.Pow(RewardBase, BreakEvenLevel)
}

// ExponentialReward 某一层的奖励（向下取整）
func ExponentialReward(level, entryCost int) int {
	if level <= 0 || entryCost <= 0 {
		return 0
	}
	// 以 BreakEvenLevel 为基准取幂，保证该层结果精确等于入场费
	return int(math.Floor(float64(entryCost) * math.Pow(RewardBase, float64(level-BreakEvenLevel))))
}

// MaxReward 入场费对应的最高奖励
func MaxReward(entryCost int) int {
	return ExponentialReward(MaxRewardLevel, entryCost)
}

// LevelReward 奖励曲线上的一个点
type LevelReward struct {
	Level  int `json:"level"`
	Reward int `json:"reward"`
}

// RewardCurve 返回 1..MaxRewardLevel 每一层的奖励，用于详情预览
func RewardCurve(entryCost int) []LevelReward {
	curve := make([]LevelReward, 0, MaxRewardLevel)
	for level := 1; level <= MaxRewardLevel; level++ {
		curve = append(curve, LevelReward{Level: level, Reward: ExponentialReward(level, entryCost)})
	}
	return curve
}

// Tier 卡包价值档位
type Tier struct {
	MinMoonrocks int `json:"min_moonrocks"`
	Payout       int `json:"payout"`
}

// Tiers 卡包价值表（按 MinMoonrocks 升序）
var Tiers = []Tier{
	{MinMoonrocks: 100, Payout: 1},
	{MinMoonrocks: 250, Payout: 3},
	{MinMoonrocks: 500, Payout: 7},
	{MinMoonrocks: 1000, Payout: 15},
	{MinMoonrocks: 2500, Payout: 40},
	{MinMoonrocks: 5000, Payout: 90},
	{MinMoonrocks: 10000, Payout: 200},
}

// ForMoonrocks 返回满足门槛的最高档位奖励，低于首档返回 0
func ForMoonrocks(moonrocks int) int {
	payout := 0
	for _, tier := range Tiers {
		if moonrocks < tier.MinMoonrocks {
			break
		}
		payout = tier.Payout
	}
	return payout
}
