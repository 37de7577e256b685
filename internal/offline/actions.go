package offline

import (
	"context"

	apperrors "github.com/wfunc/moonbag/internal/errors"
	"github.com/wfunc/moonbag/internal/game/engine"
	"github.com/wfunc/moonbag/internal/game/orb"
	"github.com/wfunc/moonbag/internal/game/payout"
	"go.uber.org/zap"
)

// potential 卡包余额加上当前积分可兑现的月岩
func potential(pack *Pack, g *engine.Game) int {
	if g.Over {
		return pack.Moonrocks
	}
	return pack.Moonrocks + payout.CashOut(g.Points)
}

// Start 在卡包中开始新的一局，返回游戏ID
func (s *Store) Start(ctx context.Context, packID uint64) (uint64, error) {
	var (
		gameID uint64
		cost   int
	)

	err := s.apply(ctx, "start", func(next *State) error {
		pack, ok := next.Packs[packID]
		if !ok {
			return errPackNotFound(packID)
		}
		if pack.GameCount >= s.opts.MaxGamesPerPack {
			return apperrors.Newf(apperrors.ErrPackIsOver, "games=%d", pack.GameCount)
		}
		if prev, ok := next.Games[GameKey(packID, pack.GameCount)]; ok && !prev.Over {
			return apperrors.Newf(apperrors.ErrGameNotOver, "game=%d", prev.ID)
		}

		gameID = pack.GameCount + 1
		g, entry, err := engine.Start(engine.Create(packID, gameID))
		if err != nil {
			return err
		}
		if pack.Moonrocks < entry {
			return notEnoughMoonrocks(entry, pack.Moonrocks)
		}

		pack.Moonrocks -= entry
		pack.GameCount++
		next.Games[GameKey(packID, gameID)] = g
		next.appendPL(packID, gameID, potential(pack, g), orb.None)
		cost = entry
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.event("start", packID, gameID, zap.Int("cost", cost))
	return gameID, nil
}

// Pull 抽珠，月岩奖励直接记入卡包
func (s *Store) Pull(ctx context.Context, packID, gameID uint64) (*engine.PullResult, error) {
	var result *engine.PullResult

	err := s.apply(ctx, "pull", func(next *State) error {
		pack, g, err := next.lookup(packID, gameID)
		if err != nil {
			return err
		}

		res, err := engine.Pull(g, s.rng.NextSeed())
		if err != nil {
			return err
		}

		for _, d := range res.Draws {
			pack.Moonrocks += d.Earnings

			value := pack.Moonrocks
			if d.Health > 0 {
				value += payout.CashOut(d.Points)
			}

			next.appendPull(OrbPulled{
				PackID:             packID,
				GameID:             gameID,
				ID:                 uint64(d.PullCount),
				Orb:                d.Orb,
				PotentialMoonrocks: value,
			})
			next.appendPL(packID, gameID, value, d.Orb)
		}

		next.Games[GameKey(packID, gameID)] = res.Game
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.event("pull", packID, gameID,
		zap.Int("draws", len(result.Draws)),
		zap.Int("points", result.Game.Points),
		zap.Int("health", result.Game.Health),
		zap.Bool("over", result.Game.Over),
	)
	return result, nil
}

// CashOut 兑现当前积分并结束游戏，返回获得的月岩
func (s *Store) CashOut(ctx context.Context, packID, gameID uint64) (int, error) {
	var earnings int

	err := s.apply(ctx, "cash_out", func(next *State) error {
		pack, g, err := next.lookup(packID, gameID)
		if err != nil {
			return err
		}

		out, amount, err := engine.CashOut(g)
		if err != nil {
			return err
		}

		pack.Moonrocks += amount
		next.Games[GameKey(packID, gameID)] = out
		next.appendPL(packID, gameID, potential(pack, out), orb.None)
		earnings = amount
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.event("cash_out", packID, gameID, zap.Int("earnings", earnings))
	return earnings, nil
}

// Enter 进入商店
func (s *Store) Enter(ctx context.Context, packID, gameID uint64) error {
	err := s.apply(ctx, "enter", func(next *State) error {
		pack, g, err := next.lookup(packID, gameID)
		if err != nil {
			return err
		}

		out, err := engine.EnterShop(g, s.rng.NextSeed())
		if err != nil {
			return err
		}
		// 商店内无法结算，付不起下一层费用时留在当前层以便兑现
		if cost := engine.MilestoneCost(g.Level + 1); pack.Moonrocks < cost {
			return notEnoughMoonrocks(cost, pack.Moonrocks)
		}

		next.Games[GameKey(packID, gameID)] = out
		return nil
	})
	if err == nil {
		s.event("enter_shop", packID, gameID)
	}
	return err
}

// Buy 购买商店中的宝珠
func (s *Store) Buy(ctx context.Context, packID, gameID uint64, indices []int) error {
	err := s.apply(ctx, "buy", func(next *State) error {
		_, g, err := next.lookup(packID, gameID)
		if err != nil {
			return err
		}

		out, _, err := engine.Buy(g, indices)
		if err != nil {
			return err
		}

		next.Games[GameKey(packID, gameID)] = out
		return nil
	})
	if err == nil {
		s.event("buy", packID, gameID, zap.Ints("indices", indices))
	}
	return err
}

// Exit 离开商店，进入下一层并支付该层费用
func (s *Store) Exit(ctx context.Context, packID, gameID uint64) error {
	err := s.apply(ctx, "exit", func(next *State) error {
		return exitShop(next, packID, gameID)
	})
	if err == nil {
		s.event("exit_shop", packID, gameID)
	}
	return err
}

// BuyAndExit 购买后直接离开商店，一次提交
func (s *Store) BuyAndExit(ctx context.Context, packID, gameID uint64, indices []int) error {
	err := s.apply(ctx, "buy_and_exit", func(next *State) error {
		_, g, err := next.lookup(packID, gameID)
		if err != nil {
			return err
		}

		out, _, err := engine.Buy(g, indices)
		if err != nil {
			return err
		}
		next.Games[GameKey(packID, gameID)] = out

		return exitShop(next, packID, gameID)
	})
	if err == nil {
		s.event("buy_and_exit", packID, gameID, zap.Ints("indices", indices))
	}
	return err
}

func exitShop(next *State, packID, gameID uint64) error {
	pack, g, err := next.lookup(packID, gameID)
	if err != nil {
		return err
	}

	out, cost, err := engine.ExitShop(g)
	if err != nil {
		return err
	}
	if pack.Moonrocks < cost {
		return notEnoughMoonrocks(cost, pack.Moonrocks)
	}

	pack.Moonrocks -= cost
	next.Games[GameKey(packID, gameID)] = out
	next.appendPL(packID, gameID, potential(pack, out), orb.None)
	return nil
}

// Refresh 刷新商店货架
func (s *Store) Refresh(ctx context.Context, packID, gameID uint64) error {
	err := s.apply(ctx, "refresh", func(next *State) error {
		_, g, err := next.lookup(packID, gameID)
		if err != nil {
			return err
		}

		out, err := engine.RefreshShop(g, s.rng.NextSeed())
		if err != nil {
			return err
		}

		next.Games[GameKey(packID, gameID)] = out
		return nil
	})
	if err == nil {
		s.event("refresh_shop", packID, gameID)
	}
	return err
}

// Burn 从袋子里移除一颗宝珠
func (s *Store) Burn(ctx context.Context, packID, gameID uint64, bagIndex int) error {
	err := s.apply(ctx, "burn", func(next *State) error {
		_, g, err := next.lookup(packID, gameID)
		if err != nil {
			return err
		}

		out, err := engine.BurnOrb(g, bagIndex)
		if err != nil {
			return err
		}

		next.Games[GameKey(packID, gameID)] = out
		return nil
	})
	if err == nil {
		s.event("burn_orb", packID, gameID, zap.Int("index", bagIndex))
	}
	return err
}
