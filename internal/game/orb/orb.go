// Package orb 定义袋子里可以抽到的宝珠：种类、分类、价格、稀有度以及各个卡池。
package orb

import (
	"fmt"

	"github.com/wfunc/moonbag/internal/game/random"
)

// Kind 宝珠种类（与链上合约的枚举值一致）
type Kind int

const (
	None Kind = iota
	PointsPerOrbRemaining
	PointsPerBombPulled
	Point5
	Point6
	Point7
	Point8
	Point9
	Multiplier50
	Multiplier100
	Multiplier150
	Health1
	Health2
	Health3
	SingleBomb
	DoubleBomb
	TripleBomb
	Moonrock15
	Moonrock40
	Chips15
	CurseScoreDecrease

	// StickyBomb 只会作为关卡诅咒注入，不在公开枚举中
	StickyBomb
)

// Category 宝珠分类，每种宝珠恰好属于一个分类
type Category int

const (
	CategoryNone Category = iota
	CategoryBomb
	CategoryHealth
	CategoryMultiplier
	CategoryPoint
	CategoryMoonrock
	CategoryChips
	CategoryCurse
)

var categoryNames = [...]string{"none", "bomb", "health", "multiplier", "point", "moonrock", "chips", "curse"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// Derived 动态积分的计算来源
type Derived int

const (
	DerivedNone Derived = iota
	DerivedOrbsRemaining
	DerivedBombsPulled
)

// Rarity 稀有度
type Rarity string

const (
	RarityCommon Rarity = "common"
	RarityRare   Rarity = "rare"
	RarityCosmic Rarity = "cosmic"
)

// Info 宝珠静态属性
type Info struct {
	Name        string
	Description string
	Category    Category
	Value       int // 炸弹伤害、回血量、倍率加成、积分、月岩或筹码数量
	Derived     Derived
	Cost        int // 0 表示不能购买
	Variant     string
}

var catalog = map[Kind]Info{
	None: {Name: "None", Description: "Nothing happens", Category: CategoryNone, Variant: "empty"},

	PointsPerOrbRemaining: {
		Name: "Remainder", Description: "Gain 1 point per orb left in the bag",
		Category: CategoryPoint, Derived: DerivedOrbsRemaining, Cost: 14, Variant: "point",
	},
	PointsPerBombPulled: {
		Name: "Bomb Collector", Description: "Gain 2 points per bomb already pulled",
		Category: CategoryPoint, Derived: DerivedBombsPulled, Cost: 15, Variant: "point",
	},
	Point5: {Name: "Five", Description: "Gain 5 points", Category: CategoryPoint, Value: 5, Cost: 5, Variant: "point"},
	Point6: {Name: "Six", Description: "Gain 6 points", Category: CategoryPoint, Value: 6, Cost: 6, Variant: "point"},
	Point7: {Name: "Seven", Description: "Gain 7 points", Category: CategoryPoint, Value: 7, Cost: 8, Variant: "point"},
	Point8: {Name: "Eight", Description: "Gain 8 points", Category: CategoryPoint, Value: 8, Cost: 9, Variant: "point"},
	Point9: {Name: "Nine", Description: "Gain 9 points", Category: CategoryPoint, Value: 9, Cost: 11, Variant: "point"},

	Multiplier50:  {Name: "Half Boost", Description: "Multiplier +0.5x", Category: CategoryMultiplier, Value: 50, Cost: 9, Variant: "multiplier"},
	Multiplier100: {Name: "Boost", Description: "Multiplier +1x", Category: CategoryMultiplier, Value: 100, Cost: 16, Variant: "multiplier"},
	Multiplier150: {Name: "Mega Boost", Description: "Multiplier +1.5x", Category: CategoryMultiplier, Value: 150, Cost: 23, Variant: "multiplier"},

	Health1: {Name: "Bandage", Description: "Heal 1 health", Category: CategoryHealth, Value: 1, Cost: 9, Variant: "health"},
	Health2: {Name: "Medkit", Description: "Heal 2 health", Category: CategoryHealth, Value: 2, Cost: 18, Variant: "health"},
	Health3: {Name: "Elixir", Description: "Heal 3 health", Category: CategoryHealth, Value: 3, Cost: 21, Variant: "health"},

	SingleBomb: {Name: "Bomb", Description: "Lose 1 health", Category: CategoryBomb, Value: 1, Variant: "bomb"},
	DoubleBomb: {Name: "Double Bomb", Description: "Lose 2 health", Category: CategoryBomb, Value: 2, Variant: "bomb"},
	TripleBomb: {Name: "Triple Bomb", Description: "Lose 3 health", Category: CategoryBomb, Value: 3, Variant: "bomb"},

	Moonrock15: {Name: "Moonrock", Description: "Earn 15 moonrocks", Category: CategoryMoonrock, Value: 15, Cost: 8, Variant: "moonrock"},
	Moonrock40: {Name: "Big Moonrock", Description: "Earn 40 moonrocks", Category: CategoryMoonrock, Value: 40, Cost: 25, Variant: "moonrock"},

	Chips15: {Name: "Chips", Description: "Gain 15 chips", Category: CategoryChips, Value: 15, Cost: 13, Variant: "chips"},

	CurseScoreDecrease: {Name: "Curse", Description: "Lose 20% of your points", Category: CategoryCurse, Value: 20, Variant: "curse"},

	StickyBomb: {Name: "Sticky Bomb", Description: "Lose 1 health, never leaves the bag", Category: CategoryBomb, Value: 1, Variant: "sticky"},
}

// BombsPulledFactor 每个已抽出炸弹对应的积分
const BombsPulledFactor = 2

// Valid 是否为已知种类
func (k Kind) Valid() bool {
	_, ok := catalog[k]
	return ok
}

// Info 返回静态属性，未知种类返回 None 的属性
func (k Kind) Info() Info {
	if info, ok := catalog[k]; ok {
		return info
	}
	return catalog[None]
}

func (k Kind) Name() string        { return k.Info().Name }
func (k Kind) Description() string { return k.Info().Description }
func (k Kind) Cost() int           { return k.Info().Cost }
func (k Kind) Variant() string     { return k.Info().Variant }
func (k Kind) Value() int          { return k.Info().Value }
func (k Kind) Category() Category  { return k.Info().Category }

func (k Kind) IsNone() bool       { return k.Category() == CategoryNone }
func (k Kind) IsBomb() bool       { return k.Category() == CategoryBomb }
func (k Kind) IsHealth() bool     { return k.Category() == CategoryHealth }
func (k Kind) IsMultiplier() bool { return k.Category() == CategoryMultiplier }
func (k Kind) IsPoint() bool      { return k.Category() == CategoryPoint }
func (k Kind) IsMoonrock() bool   { return k.Category() == CategoryMoonrock }
func (k Kind) IsChips() bool      { return k.Category() == CategoryChips }
func (k Kind) IsCurse() bool      { return k.Category() == CategoryCurse }

// IsSticky 粘性宝珠抽出后不会被弃置
func (k Kind) IsSticky() bool { return k == StickyBomb }

// Purchasable 是否可以在商店购买
func (k Kind) Purchasable() bool { return k.Cost() > 0 }

// Rarity 按价格划分稀有度
func (k Kind) Rarity() Rarity {
	cost := k.Cost()
	switch {
	case cost >= 21:
		return RarityCosmic
	case cost >= 14:
		return RarityRare
	default:
		return RarityCommon
	}
}

// String 实现 fmt.Stringer
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return k.Name()
}

// All 返回所有种类（含 StickyBomb）
func All() []Kind {
	kinds := make([]Kind, 0, len(catalog))
	for k := None; k <= StickyBomb; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Initial 开局袋子（11个）
func Initial() []Kind {
	return []Kind{
		SingleBomb, SingleBomb, DoubleBomb, TripleBomb,
		Point5, Point5, Point5, Point6,
		PointsPerOrbRemaining, Multiplier50, Health1,
	}
}

// Common 商店普通卡池
func Common() []Kind {
	return []Kind{Point5, Point6, Point7, Point8, Point9, Multiplier50, Health1, Moonrock15, Chips15}
}

// Rare 商店稀有卡池
func Rare() []Kind {
	return []Kind{PointsPerOrbRemaining, PointsPerBombPulled, Multiplier100, Health2}
}

// Cosmic 商店宇宙卡池
func Cosmic() []Kind {
	return []Kind{Health3, Multiplier150, Moonrock40}
}

// 商店各稀有度的数量
const (
	ShopCommons = 3
	ShopRares   = 2
	ShopCosmics = 1
	ShopSize    = ShopCommons + ShopRares + ShopCosmics
)

// ShopOffer 由种子生成商店货架：3普通 + 2稀有 + 1宇宙，各自不重复，再整体洗牌
func ShopOffer(seed uint64) []Kind {
	r := random.New(seed)

	offer := make([]Kind, 0, ShopSize)
	offer = append(offer, random.Shuffle(Common(), r)[:ShopCommons]...)
	offer = append(offer, random.Shuffle(Rare(), r)[:ShopRares]...)
	offer = append(offer, random.Shuffle(Cosmic(), r)[:ShopCosmics]...)

	return random.Shuffle(offer, r)
}
