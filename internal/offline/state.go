package offline

import (
	"fmt"
	"time"

	"github.com/wfunc/moonbag/internal/game/engine"
	"github.com/wfunc/moonbag/internal/game/orb"
)

// Pack 卡包：持有月岩余额，可以开若干局游戏
type Pack struct {
	ID        uint64 `json:"id"`
	GameCount uint64 `json:"game_count"`
	Moonrocks int    `json:"moonrocks"`
	CreatedAt int64  `json:"created_at"` // unix 毫秒
}

// OrbPulled 抽珠记录
type OrbPulled struct {
	PackID             uint64   `json:"pack_id"`
	GameID             uint64   `json:"game_id"`
	ID                 uint64   `json:"id"`
	Orb                orb.Kind `json:"orb"`
	PotentialMoonrocks int      `json:"potential_moonrocks"`
}

// PLDataPoint 盈亏曲线上的一个点，Orb 为 0 表示非抽珠节点
type PLDataPoint struct {
	PackID             uint64   `json:"pack_id"`
	GameID             uint64   `json:"game_id"`
	ID                 uint64   `json:"id"`
	PotentialMoonrocks int      `json:"potential_moonrocks"`
	Orb                orb.Kind `json:"orb"`
}

// State 离线模式的完整状态
type State struct {
	Version      int                     `json:"version"`
	NextPackID   uint64                  `json:"nextPackId"`
	Packs        map[uint64]*Pack        `json:"packs"`
	Games        map[string]*engine.Game `json:"games"`
	Pulls        []OrbPulled             `json:"pulls"`
	PLDataPoints []PLDataPoint           `json:"plDataPoints"`
}

// GameKey 游戏在 State.Games 中的键
func GameKey(packID, gameID uint64) string {
	return fmt.Sprintf("%d-%d", packID, gameID)
}

// DefaultState 默认状态：一个卡包，空记录
func DefaultState(version, startingMoonrocks int, now time.Time) *State {
	return &State{
		Version:    version,
		NextPackID: 2,
		Packs: map[uint64]*Pack{
			1: {ID: 1, Moonrocks: startingMoonrocks, CreatedAt: now.UnixMilli()},
		},
		Games:        map[string]*engine.Game{},
		Pulls:        []OrbPulled{},
		PLDataPoints: []PLDataPoint{},
	}
}

// Clone 深拷贝
func (st *State) Clone() *State {
	c := &State{
		Version:      st.Version,
		NextPackID:   st.NextPackID,
		Packs:        make(map[uint64]*Pack, len(st.Packs)),
		Games:        make(map[string]*engine.Game, len(st.Games)),
		Pulls:        append([]OrbPulled{}, st.Pulls...),
		PLDataPoints: append([]PLDataPoint{}, st.PLDataPoints...),
	}
	for id, p := range st.Packs {
		pack := *p
		c.Packs[id] = &pack
	}
	for key, g := range st.Games {
		c.Games[key] = g.Clone()
	}
	return c
}

// normalize 补齐反序列化后缺失的集合
func (st *State) normalize() {
	if st.Packs == nil {
		st.Packs = map[uint64]*Pack{}
	}
	if st.Games == nil {
		st.Games = map[string]*engine.Game{}
	}
	if st.Pulls == nil {
		st.Pulls = []OrbPulled{}
	}
	if st.PLDataPoints == nil {
		st.PLDataPoints = []PLDataPoint{}
	}
	for _, g := range st.Games {
		if g.Bag == nil {
			g.Bag = []orb.Kind{}
		}
		if len(g.Discards) != len(g.Bag) {
			g.Discards = make([]bool, len(g.Bag))
		}
	}
}

func (st *State) lookup(packID, gameID uint64) (*Pack, *engine.Game, error) {
	pack, ok := st.Packs[packID]
	if !ok {
		return nil, nil, errPackNotFound(packID)
	}
	g, ok := st.Games[GameKey(packID, gameID)]
	if !ok {
		return nil, nil, errGameNotFound(packID, gameID)
	}
	return pack, g, nil
}

// appendPull 追加抽珠记录，(pack, game, id) 相同的记录只保留一条
func (st *State) appendPull(p OrbPulled) {
	for _, existing := range st.Pulls {
		if existing.PackID == p.PackID && existing.GameID == p.GameID && existing.ID == p.ID {
			return
		}
	}
	st.Pulls = append(st.Pulls, p)
}

// appendPL 追加盈亏点，ID 为该局已有点的数量
func (st *State) appendPL(packID, gameID uint64, potential int, kind orb.Kind) {
	var next uint64
	for _, existing := range st.PLDataPoints {
		if existing.PackID == packID && existing.GameID == gameID {
			next++
		}
	}
	st.PLDataPoints = append(st.PLDataPoints, PLDataPoint{
		PackID:             packID,
		GameID:             gameID,
		ID:                 next,
		PotentialMoonrocks: potential,
		Orb:                kind,
	})
}
