package engine

import (
	apperrors "github.com/wfunc/moonbag/internal/errors"
	"github.com/wfunc/moonbag/internal/game/orb"
	"github.com/wfunc/moonbag/internal/game/payout"
	"github.com/wfunc/moonbag/internal/game/random"
)

// Draw 一次抽珠的结果
type Draw struct {
	Index     int      `json:"index"`
	Orb       orb.Kind `json:"orb"`
	Earnings  int      `json:"earnings"`
	Points    int      `json:"points"`
	Health    int      `json:"health"`
	PullCount int      `json:"pull_count"`
}

// PullResult 抽珠结果
type PullResult struct {
	Game     *Game  `json:"game"`
	Draws    []Draw `json:"draws"`
	Earnings int    `json:"earnings"`
}

// ensurePlaying 检查游戏处于抽珠阶段
func ensurePlaying(g *Game) error {
	if g.Over {
		return apperrors.New(apperrors.ErrGameIsOver)
	}
	if g.Shop != nil {
		return apperrors.New(apperrors.ErrGameInShop)
	}
	return nil
}

// ensureShop 检查游戏处于商店阶段
func ensureShop(g *Game) error {
	if g.Over {
		return apperrors.New(apperrors.ErrGameIsOver)
	}
	if g.Shop == nil {
		return apperrors.New(apperrors.ErrGameNotInShop)
	}
	return nil
}

// Pull 从袋子里抽珠
func Pull(g *Game, seed uint64) (*PullResult, error) {
	if err := ensurePlaying(g); err != nil {
		return nil, err
	}
	if g.Completed() {
		return nil, apperrors.New(apperrors.ErrGameStageCompleted)
	}

	next := g.Clone()
	next.Seed = seed
	r := random.New(seed)

	// 只剩粘性宝珠时开启新一轮
	available := availableIndices(next)
	if len(available) == stickyCount(next, available) {
		next.Discards = make([]bool, len(next.Bag))
		next.BombsPulled = 0
		available = availableIndices(next)
	}

	draws := 1
	if next.Curses.Has(CurseDoubleDraw) {
		draws = 2
	}

	result := &PullResult{Game: next, Draws: make([]Draw, 0, draws)}
	for d := 0; d < draws && len(available) > 0; d++ {
		pick := r.NextInt(len(available))
		index := available[pick]
		available = append(available[:pick], available[pick+1:]...)

		kind := next.Bag[index]
		if !kind.IsSticky() {
			next.Discards[index] = true
		}
		if kind.IsBomb() {
			next.BombsPulled++
		}

		earnings := applyOrb(next, kind)
		next.PullCount++

		result.Earnings += earnings
		result.Draws = append(result.Draws, Draw{
			Index:     index,
			Orb:       kind,
			Earnings:  earnings,
			Points:    next.Points,
			Health:    next.Health,
			PullCount: next.PullCount,
		})
	}

	if next.Health <= 0 {
		next.Over = true
	}

	return result, nil
}

func availableIndices(g *Game) []int {
	indices := make([]int, 0, len(g.Bag))
	for i := range g.Bag {
		if !g.Discards[i] {
			indices = append(indices, i)
		}
	}
	return indices
}

func stickyCount(g *Game, indices []int) int {
	count := 0
	for _, i := range indices {
		if g.Bag[i].IsSticky() {
			count++
		}
	}
	return count
}

// applyOrb 按分类结算宝珠效果，返回获得的月岩
func applyOrb(g *Game, kind orb.Kind) int {
	info := kind.Info()

	switch info.Category {
	case orb.CategoryBomb:
		if g.Immunity > 0 {
			g.Immunity--
			return 0
		}
		g.Health -= info.Value
		if g.Health < 0 {
			g.Health = 0
		}
	case orb.CategoryHealth:
		g.Health += info.Value
		if g.Health > MaxHealth {
			g.Health = MaxHealth
		}
	case orb.CategoryMultiplier:
		boost := info.Value
		if g.Curses.Has(CurseDemultiplier) {
			boost /= DemultiplierRatio
		}
		g.Multiplier += boost
	case orb.CategoryPoint:
		g.Points += g.Multiplier * pointBase(g, info) / 100
	case orb.CategoryMoonrock:
		return info.Value
	case orb.CategoryChips:
		g.Chips += info.Value
	case orb.CategoryCurse:
		g.Points -= g.Points * info.Value / 100
	}

	return 0
}

func pointBase(g *Game, info orb.Info) int {
	switch info.Derived {
	case orb.DerivedOrbsRemaining:
		count := 0
		for _, discarded := range g.Discards {
			if !discarded {
				count++
			}
		}
		return count
	case orb.DerivedBombsPulled:
		return g.BombsPulled * orb.BombsPulledFactor
	default:
		return info.Value
	}
}

// CashOut 兑现积分并结束游戏，返回获得的月岩
func CashOut(g *Game) (*Game, int, error) {
	if err := ensurePlaying(g); err != nil {
		return nil, 0, err
	}

	next := g.Clone()
	earnings := payout.CashOut(next.Points)
	next.Points = 0
	next.Over = true

	return next, earnings, nil
}
