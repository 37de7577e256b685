package payout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCashOut_Boundaries(t *testing.T) {
	cases := map[int]int{
		0:   0,
		1:   1,
		60:  60,
		61:  61,
		65:  65,
		120: 111,
		121: 112,
		200: 167,
		201: 168,
		202: 168,
		203: 169,
		300: 217,
	}
	for points, expected := range cases {
		assert.Equal(t, expected, CashOut(points), "points=%d", points)
	}
}

func TestCashOut_Monotonic(t *testing.T) {
	prev := CashOut(0)
	for points := 1; points <= 1000; points++ {
		cur := CashOut(points)
		assert.GreaterOrEqual(t, cur, prev, "points=%d", points)
		// 每多一分最多多兑换一个月岩
		assert.LessOrEqual(t, cur-prev, 1, "points=%d", points)
		prev = cur
	}
}

func TestCashOut_Negative(t *testing.T) {
	assert.Equal(t, 0, CashOut(-10))
}

func TestExponentialReward_BreakEven(t *testing.T) {
	for _, cost := range []int{1, 5, 10, 25, 100} {
		assert.Equal(t, cost, ExponentialReward(BreakEvenLevel, cost), "cost=%d", cost)
	}
}

func TestExponentialReward_Growth(t *testing.T) {
	prev := 0
	for level := 1; level <= MaxRewardLevel; level++ {
		cur := ExponentialReward(level, 1000)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
	assert.Less(t, ExponentialReward(13, 100), 100)
	assert.Greater(t, ExponentialReward(15, 100), 100)
	assert.Equal(t, 0, ExponentialReward(0, 100))
	assert.Equal(t, 0, ExponentialReward(5, 0))
}

func TestRewardMultiplier(t *testing.T) {
	m := RewardMultiplier(10)
	assert.InDelta(t, 10.0, m*math.Pow(RewardBase, BreakEvenLevel), 1e-9)
}

func TestMaxReward(t *testing.T) {
	// 10 * 1.6^6 = 167.77
	assert.Equal(t, 167, MaxReward(10))
	assert.Equal(t, ExponentialReward(MaxRewardLevel, 50), MaxReward(50))
}

func TestRewardCurve(t *testing.T) {
	curve := RewardCurve(10)
	assert.Len(t, curve, MaxRewardLevel)
	assert.Equal(t, 1, curve[0].Level)
	assert.Equal(t, 10, curve[BreakEvenLevel-1].Reward)
	assert.Equal(t, MaxReward(10), curve[len(curve)-1].Reward)
}

func TestForMoonrocks(t *testing.T) {
	assert.Equal(t, 0, ForMoonrocks(0))
	assert.Equal(t, 0, ForMoonrocks(99))
	assert.Equal(t, 1, ForMoonrocks(100))
	assert.Equal(t, 1, ForMoonrocks(249))
	assert.Equal(t, 3, ForMoonrocks(250))
	assert.Equal(t, 15, ForMoonrocks(1000))
	assert.Equal(t, 200, ForMoonrocks(1_000_000))
}

func TestTiersAscending(t *testing.T) {
	for i := 1; i < len(Tiers); i++ {
		assert.Greater(t, Tiers[i].MinMoonrocks, Tiers[i-1].MinMoonrocks)
		assert.Greater(t, Tiers[i].Payout, Tiers[i-1].Payout)
	}
}
