package engine

import (
	apperrors "github.com/wfunc/moonbag/internal/errors"
	"github.com/wfunc/moonbag/internal/game/orb"
)

// Price 第 n 次（从0开始）购买同一宝珠的价格，向上取整
func Price(cost, purchased int) int {
	return (cost*(100+PriceMarkup*purchased) + 99) / 100
}

func newShop(seed uint64) *Shop {
	orbs := orb.ShopOffer(seed)
	return &Shop{
		Orbs:           orbs,
		PurchaseCounts: make([]int, len(orbs)),
	}
}

// EnterShop 达成目标后进入商店，积分按1:1转为筹码
func EnterShop(g *Game, seed uint64) (*Game, error) {
	if err := ensurePlaying(g); err != nil {
		return nil, err
	}
	if !g.Completed() {
		return nil, apperrors.New(apperrors.ErrGameStageNotCompleted)
	}
	if Milestone(g.Level+1) == 0 {
		return nil, apperrors.New(apperrors.ErrGameFinalLevel)
	}

	next := g.Clone()
	next.Seed = seed
	next.Chips += next.Points
	next.Points = 0
	next.Shop = newShop(seed)

	return next, nil
}

// Buy 依次购买商店中的宝珠，同一下标可重复出现，返回花费的筹码
func Buy(g *Game, indices []int) (*Game, int, error) {
	if err := ensureShop(g); err != nil {
		return nil, 0, err
	}

	next := g.Clone()
	spent := 0
	for _, index := range indices {
		if index < 0 || index >= len(next.Shop.Orbs) {
			return nil, 0, apperrors.Newf(apperrors.ErrGameIndexOutOfRange, "index=%d", index)
		}
		if len(next.Bag) >= MaxBag {
			return nil, 0, apperrors.New(apperrors.ErrGameBagFull)
		}

		kind := next.Shop.Orbs[index]
		price := Price(kind.Cost(), next.Shop.PurchaseCounts[index])
		if next.Chips < price {
			return nil, 0, apperrors.Newf(apperrors.ErrGameCannotAfford, "price=%d chips=%d", price, next.Chips)
		}

		next.Chips -= price
		next.Shop.PurchaseCounts[index]++
		next.Bag = append(next.Bag, kind)
		next.Discards = append(next.Discards, false)
		spent += price
	}

	return next, spent, nil
}

// ExitShop 离开商店进入下一层，返回新一层的入场费
func ExitShop(g *Game) (*Game, int, error) {
	if err := ensureShop(g); err != nil {
		return nil, 0, err
	}

	next := g.Clone()
	next.Level++
	next.Milestone = Milestone(next.Level)
	next.Health = MaxHealth
	next.Shop = nil
	next.Multiplier = BaseMultiplier

	if inj, ok := levelInjections[next.Level]; ok {
		if inj.orb != orb.None {
			next.Bag = append(next.Bag, inj.orb)
		}
		next.Curses |= inj.curse
	}
	next.Discards = make([]bool, len(next.Bag))
	next.BombsPulled = 0

	return next, MilestoneCost(next.Level), nil
}

// RefreshShop 每次进店可刷新一次货架，消耗 RefreshCost 筹码
func RefreshShop(g *Game, seed uint64) (*Game, error) {
	if err := ensureShop(g); err != nil {
		return nil, err
	}
	if g.Shop.Refreshed {
		return nil, apperrors.New(apperrors.ErrShopRefreshed)
	}
	if g.Chips < RefreshCost {
		return nil, apperrors.Newf(apperrors.ErrGameCannotAfford, "price=%d chips=%d", RefreshCost, g.Chips)
	}

	next := g.Clone()
	next.Seed = seed
	next.Chips -= RefreshCost

	shop := newShop(seed)
	shop.Burned = next.Shop.Burned
	shop.Refreshed = true
	next.Shop = shop

	return next, nil
}

// BurnOrb 每次进店可从袋子里移除一颗非粘性宝珠
func BurnOrb(g *Game, bagIndex int) (*Game, error) {
	if err := ensureShop(g); err != nil {
		return nil, err
	}
	if g.Shop.Burned {
		return nil, apperrors.New(apperrors.ErrShopBurned)
	}
	if bagIndex < 0 || bagIndex >= len(g.Bag) {
		return nil, apperrors.Newf(apperrors.ErrGameIndexOutOfRange, "index=%d", bagIndex)
	}
	if g.Bag[bagIndex].IsSticky() {
		return nil, apperrors.New(apperrors.ErrStickyOrb)
	}
	if len(g.Bag) <= 1 {
		return nil, apperrors.New(apperrors.ErrGameBagEmpty)
	}

	next := g.Clone()
	next.Bag = append(next.Bag[:bagIndex], next.Bag[bagIndex+1:]...)
	next.Discards = append(next.Discards[:bagIndex], next.Discards[bagIndex+1:]...)
	next.Shop.Burned = true

	return next, nil
}
