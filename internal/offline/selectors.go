package offline

import (
	"sort"

	"github.com/wfunc/moonbag/internal/game/engine"
	"github.com/wfunc/moonbag/internal/game/orb"
	"github.com/wfunc/moonbag/internal/game/payout"
)

// PackView 卡包视图
type PackView struct {
	Pack
	GamesRemaining uint64 `json:"games_remaining"`
	ActiveGameID   uint64 `json:"active_game_id"` // 0 表示没有进行中的游戏
}

// GameView 游戏视图
type GameView struct {
	*engine.Game
	State      engine.State `json:"state"`
	Pullable   []orb.Kind   `json:"pullable"`
	Potential  int          `json:"potential"`             // 现在兑现可得的月岩
	ShopPrices []int        `json:"shop_prices,omitempty"` // 商店每个位置的当前价格
}

// PackValue 卡包价值
type PackValue struct {
	PackID    uint64 `json:"pack_id"`
	Moonrocks int    `json:"moonrocks"`
	Payout    int    `json:"payout"`
}

// SelectPacks 按ID排序的卡包列表
func SelectPacks(st *State, maxGames uint64) []PackView {
	views := make([]PackView, 0, len(st.Packs))
	for _, p := range st.Packs {
		view := PackView{Pack: *p}
		if p.GameCount < maxGames {
			view.GamesRemaining = maxGames - p.GameCount
		}
		if g, ok := st.Games[GameKey(p.ID, p.GameCount)]; ok && !g.Over {
			view.ActiveGameID = g.ID
		}
		views = append(views, view)
	}

	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views
}

// SelectGame 游戏视图，附带可抽的宝珠
func SelectGame(st *State, packID, gameID uint64) (*GameView, error) {
	if _, ok := st.Packs[packID]; !ok {
		return nil, errPackNotFound(packID)
	}
	g, ok := st.Games[GameKey(packID, gameID)]
	if !ok {
		return nil, errGameNotFound(packID, gameID)
	}

	view := &GameView{
		Game:     g.Clone(),
		State:    g.State(),
		Pullable: g.Pullable(),
	}
	if !g.Over {
		view.Potential = payout.CashOut(g.Points)
	}
	if g.Shop != nil {
		view.ShopPrices = make([]int, len(g.Shop.Orbs))
		for i, k := range g.Shop.Orbs {
			view.ShopPrices[i] = engine.Price(k.Cost(), g.Shop.PurchaseCounts[i])
		}
	}
	return view, nil
}

// SelectPulls 某局的抽珠记录，按ID排序
func SelectPulls(st *State, packID, gameID uint64) []OrbPulled {
	pulls := make([]OrbPulled, 0)
	for _, p := range st.Pulls {
		if p.PackID == packID && p.GameID == gameID {
			pulls = append(pulls, p)
		}
	}
	sort.Slice(pulls, func(i, j int) bool { return pulls[i].ID < pulls[j].ID })
	return pulls
}

// SelectPLDataPoints 某局的盈亏曲线，按ID排序
func SelectPLDataPoints(st *State, packID, gameID uint64) []PLDataPoint {
	points := make([]PLDataPoint, 0)
	for _, p := range st.PLDataPoints {
		if p.PackID == packID && p.GameID == gameID {
			points = append(points, p)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].ID < points[j].ID })
	return points
}

// SelectTotalMoonrocks 所有卡包的月岩总和
func SelectTotalMoonrocks(st *State) int {
	total := 0
	for _, p := range st.Packs {
		total += p.Moonrocks
	}
	return total
}

// SelectPackValue 卡包余额对应的价值档位
func SelectPackValue(st *State, packID uint64) (*PackValue, error) {
	p, ok := st.Packs[packID]
	if !ok {
		return nil, errPackNotFound(packID)
	}
	return &PackValue{
		PackID:    p.ID,
		Moonrocks: p.Moonrocks,
		Payout:    payout.ForMoonrocks(p.Moonrocks),
	}, nil
}
