// Package sim 用固定策略批量模拟游戏，统计返还率（RTP）和各层到达情况。
package sim

import (
	"fmt"
	"os"

	"github.com/wfunc/moonbag/internal/game/engine"
	"github.com/wfunc/moonbag/internal/game/random"
	"gopkg.in/yaml.v3"
)

// maxSteps 单局操作上限，防止策略配置错误导致死循环
const maxSteps = 10000

// Strategy 玩家策略
type Strategy struct {
	Name string `yaml:"name"`
	// 生命值低于该值且积分大于 0 时兑现
	CashOutBelowHealth int `yaml:"cash_out_below_health"`
	// 完成该层后兑现，0 表示一直打到最后一层
	StopAtLevel int `yaml:"stop_at_level"`
	// 在商店里是否花光筹码（优先买贵的）
	SpendChips bool `yaml:"spend_chips"`
}

// Validate 校验策略
func (s Strategy) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("策略名称不能为空")
	}
	if s.CashOutBelowHealth < 0 || s.CashOutBelowHealth > engine.MaxHealth {
		return fmt.Errorf("策略 %s: cash_out_below_health 超出范围: %d", s.Name, s.CashOutBelowHealth)
	}
	if s.StopAtLevel < 0 || s.StopAtLevel > engine.FinalLevel() {
		return fmt.Errorf("策略 %s: stop_at_level 超出范围: %d", s.Name, s.StopAtLevel)
	}
	return nil
}

// DefaultStrategies 内置策略
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "cautious", CashOutBelowHealth: 3, StopAtLevel: 1},
		{Name: "steady", CashOutBelowHealth: 2, StopAtLevel: 3, SpendChips: true},
		{Name: "greedy", CashOutBelowHealth: 1, SpendChips: true},
	}
}

type strategyFile struct {
	Strategies []Strategy `yaml:"strategies"`
}

// LoadStrategies 从 YAML 文件读取策略列表
func LoadStrategies(path string) ([]Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取策略文件失败: %w", err)
	}
	return ParseStrategies(data)
}

// ParseStrategies 解析 YAML 策略列表
func ParseStrategies(data []byte) ([]Strategy, error) {
	var f strategyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("解析策略失败: %w", err)
	}
	if len(f.Strategies) == 0 {
		return nil, fmt.Errorf("策略列表为空")
	}
	for _, s := range f.Strategies {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Strategies, nil
}

// Outcome 单局结果
type Outcome struct {
	Spent    int  // 入场费与各层费用
	Returned int  // 抽到的月岩加兑现
	Level    int  // 结束时所在层
	Pulls    int  // 抽珠次数
	Died     bool // 生命值耗尽
}

// Report 一个策略的统计结果
type Report struct {
	Strategy      string      `yaml:"strategy"`
	Games         int         `yaml:"games"`
	Seed          uint64      `yaml:"seed"`
	TotalSpent    int         `yaml:"total_spent"`
	TotalReturned int         `yaml:"total_returned"`
	RTP           float64     `yaml:"rtp"`
	Deaths        int         `yaml:"deaths"`
	AvgPulls      float64     `yaml:"avg_pulls"`
	MaxReturn     int         `yaml:"max_return"`
	LevelsReached map[int]int `yaml:"levels_reached"`
}

// Run 用 seed 派生每局的随机种子，模拟 games 局
func Run(strategy Strategy, games int, seed uint64) (*Report, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}

	report := &Report{
		Strategy:      strategy.Name,
		Games:         games,
		Seed:          seed,
		LevelsReached: make(map[int]int),
	}

	rng := random.New(seed)
	pulls := 0
	for i := 0; i < games; i++ {
		out, err := Play(strategy, rng)
		if err != nil {
			return nil, fmt.Errorf("第 %d 局模拟失败: %w", i+1, err)
		}

		report.TotalSpent += out.Spent
		report.TotalReturned += out.Returned
		report.LevelsReached[out.Level]++
		pulls += out.Pulls
		if out.Died {
			report.Deaths++
		}
		if out.Returned > report.MaxReturn {
			report.MaxReturn = out.Returned
		}
	}

	if report.TotalSpent > 0 {
		report.RTP = float64(report.TotalReturned) / float64(report.TotalSpent)
	}
	if games > 0 {
		report.AvgPulls = float64(pulls) / float64(games)
	}
	return report, nil
}

// Play 按策略玩完一局
func Play(strategy Strategy, rng *random.Random) (*Outcome, error) {
	g, entry, err := engine.Start(engine.Create(1, 1))
	if err != nil {
		return nil, err
	}
	out := &Outcome{Spent: entry}

	for step := 0; step < maxSteps; step++ {
		switch g.State() {
		case engine.StateOver:
			out.Level = g.Level
			out.Pulls = g.PullCount
			out.Died = g.Health <= 0
			return out, nil

		case engine.StateShop:
			if strategy.SpendChips {
				g = spendChips(g)
			}
			next, cost, err := engine.ExitShop(g)
			if err != nil {
				return nil, err
			}
			out.Spent += cost
			g = next

		default:
			next, returned, err := playTurn(strategy, g, rng)
			if err != nil {
				return nil, err
			}
			out.Returned += returned
			g = next
		}
	}

	return nil, fmt.Errorf("超过 %d 步仍未结束", maxSteps)
}

// playTurn 进行中的一步：兑现、进店或抽珠
func playTurn(strategy Strategy, g *engine.Game, rng *random.Random) (*engine.Game, int, error) {
	if g.Completed() {
		finalLevel := g.Level >= engine.FinalLevel()
		if finalLevel || (strategy.StopAtLevel > 0 && g.Level >= strategy.StopAtLevel) {
			return engine.CashOut(g)
		}
		next, err := engine.EnterShop(g, rng.NextSeed())
		return next, 0, err
	}

	if g.Points > 0 && g.Health < strategy.CashOutBelowHealth {
		return engine.CashOut(g)
	}

	result, err := engine.Pull(g, rng.NextSeed())
	if err != nil {
		return nil, 0, err
	}
	return result.Game, result.Earnings, nil
}

// spendChips 反复购买买得起的最贵宝珠，直到买不起或袋子满
func spendChips(g *engine.Game) *engine.Game {
	for len(g.Bag) < engine.MaxBag {
		best, bestPrice := -1, 0
		for i, k := range g.Shop.Orbs {
			price := engine.Price(k.Cost(), g.Shop.PurchaseCounts[i])
			if price <= g.Chips && price > bestPrice {
				best, bestPrice = i, price
			}
		}
		if best < 0 {
			return g
		}

		next, _, err := engine.Buy(g, []int{best})
		if err != nil {
			return g
		}
		g = next
	}
	return g
}
