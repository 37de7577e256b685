// Package engine 实现单局游戏的纯状态转换：开局、抽珠、兑现、商店进出与购买。
//
// 所有函数都不修改传入的 Game，而是返回新的副本；违反前置条件时返回
// AppError，不会返回半成品状态。
package engine

import (
	"github.com/wfunc/moonbag/internal/game/orb"
)

// 游戏常量
const (
	MaxHealth         = 5
	MaxBag            = 50
	BaseMultiplier    = 100 // 1x，以百分比存储
	RefreshCost       = 5   // 刷新商店消耗的筹码
	PriceMarkup       = 20  // 同一宝珠每次重复购买加价百分比
	DemultiplierRatio = 2   // 减倍诅咒下倍率加成的除数
)

// State 游戏状态
type State string

const (
	StatePlaying State = "playing" // 抽珠中
	StateShop    State = "shop"    // 商店中
	StateOver    State = "over"    // 已结束
)

// Curse 诅咒位集合
type Curse uint32

const (
	CurseDoubleDraw   Curse = 1 << iota // 每次抽两颗
	CurseDemultiplier                   // 倍率加成减半
	CurseDoubleBomb                     // 已注入双倍炸弹
	CurseStickyBomb                     // 已注入粘性炸弹
)

// Has 是否包含诅咒
func (c Curse) Has(flag Curse) bool {
	return c&flag != 0
}

// milestones 每一层的积分目标（1..7层）
var milestones = []int{12, 18, 28, 44, 66, 94, 130}

// milestoneCosts 进入每一层需要支付的月岩
var milestoneCosts = []int{10, 1, 2, 3, 4, 5, 6}

// Milestone 返回某层的积分目标，超出表范围返回 0
func Milestone(level int) int {
	if level < 1 || level > len(milestones) {
		return 0
	}
	return milestones[level-1]
}

// MilestoneCost 返回进入某层的费用，超出表范围返回 0
func MilestoneCost(level int) int {
	if level < 1 || level > len(milestoneCosts) {
		return 0
	}
	return milestoneCosts[level-1]
}

// FinalLevel 最后一层
func FinalLevel() int {
	return len(milestones)
}

// injection 进入某层时注入的诅咒
type injection struct {
	orb   orb.Kind
	curse Curse
}

var levelInjections = map[int]injection{
	4: {orb: orb.DoubleBomb, curse: CurseDoubleBomb},
	5: {orb: orb.CurseScoreDecrease, curse: CurseDemultiplier},
	6: {orb: orb.StickyBomb, curse: CurseStickyBomb},
	7: {orb: orb.DoubleBomb, curse: CurseDoubleDraw},
}

// Shop 商店阶段的数据
type Shop struct {
	Orbs           []orb.Kind `json:"orbs"`
	Refreshed      bool       `json:"refreshed"`
	Burned         bool       `json:"burned"`
	PurchaseCounts []int      `json:"purchase_counts"`
}

// Game 单局游戏状态
type Game struct {
	PackID    uint64 `json:"pack_id"`
	ID        uint64 `json:"id"`
	Seed      uint64 `json:"seed"`
	Over      bool   `json:"over"`
	Level     int    `json:"level"`
	Health    int    `json:"health"`
	Immunity  int    `json:"immunity"`
	Curses    Curse  `json:"curses"`
	PullCount int    `json:"pull_count"`
	// BombsPulled 本轮已抽出的炸弹数（含粘性炸弹），随 discards 一起清零
	BombsPulled int        `json:"bombs_pulled"`
	Points      int        `json:"points"`
	Milestone   int        `json:"milestone"`
	Multiplier  int        `json:"multiplier"`
	Chips       int        `json:"chips"`
	Discards    []bool     `json:"discards"`
	Bag         []orb.Kind `json:"bag"`
	Shop        *Shop      `json:"shop"`
}

// Create 创建第一层的新游戏（袋子为空，需要 Start）
func Create(packID, gameID uint64) *Game {
	return &Game{
		PackID:     packID,
		ID:         gameID,
		Level:      1,
		Health:     MaxHealth,
		Milestone:  Milestone(1),
		Multiplier: BaseMultiplier,
		Discards:   []bool{},
		Bag:        []orb.Kind{},
	}
}

// State 当前状态
func (g *Game) State() State {
	switch {
	case g.Over:
		return StateOver
	case g.Shop != nil:
		return StateShop
	default:
		return StatePlaying
	}
}

// Completed 当前层积分是否达标
func (g *Game) Completed() bool {
	return g.Points >= g.Milestone
}

// Pullable 尚未抽出的宝珠
func (g *Game) Pullable() []orb.Kind {
	kinds := make([]orb.Kind, 0, len(g.Bag))
	for i, k := range g.Bag {
		if !g.Discards[i] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Clone 深拷贝
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	c := *g
	c.Discards = append([]bool{}, g.Discards...)
	c.Bag = append([]orb.Kind{}, g.Bag...)
	if g.Shop != nil {
		shop := *g.Shop
		shop.Orbs = append([]orb.Kind{}, g.Shop.Orbs...)
		shop.PurchaseCounts = append([]int{}, g.Shop.PurchaseCounts...)
		c.Shop = &shop
	}
	return &c
}

// Start 装入初始袋子，返回第一层的入场费
func Start(g *Game) (*Game, int, error) {
	if err := ensurePlaying(g); err != nil {
		return nil, 0, err
	}

	next := g.Clone()
	next.Bag = orb.Initial()
	next.Discards = make([]bool, len(next.Bag))
	next.BombsPulled = 0

	return next, MilestoneCost(next.Level), nil
}
