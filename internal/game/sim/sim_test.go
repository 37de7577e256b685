package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/moonbag/internal/game/engine"
	"github.com/wfunc/moonbag/internal/game/random"
	"gopkg.in/yaml.v3"
)

func TestRun_Deterministic(t *testing.T) {
	for _, s := range DefaultStrategies() {
		a, err := Run(s, 200, 11)
		require.NoError(t, err)
		b, err := Run(s, 200, 11)
		require.NoError(t, err)
		assert.Equal(t, a, b, s.Name)
	}
}

func TestRun_Totals(t *testing.T) {
	for _, s := range DefaultStrategies() {
		report, err := Run(s, 300, 5)
		require.NoError(t, err)

		games := 0
		for level, n := range report.LevelsReached {
			assert.GreaterOrEqual(t, level, 1)
			assert.LessOrEqual(t, level, engine.FinalLevel())
			games += n
		}
		assert.Equal(t, 300, games, s.Name)
		assert.GreaterOrEqual(t, report.TotalSpent, 300*engine.MilestoneCost(1))
		assert.LessOrEqual(t, report.Deaths, 300)
		assert.Positive(t, report.AvgPulls)
		if report.TotalReturned > 0 {
			assert.InDelta(t, float64(report.TotalReturned)/float64(report.TotalSpent), report.RTP, 1e-9)
		}
	}
}

func TestPlay_StopsAtLevel(t *testing.T) {
	s := Strategy{Name: "first", StopAtLevel: 1}
	rng := random.New(9)
	for i := 0; i < 100; i++ {
		out, err := Play(s, rng)
		require.NoError(t, err)
		assert.Equal(t, 1, out.Level)
		assert.Equal(t, engine.MilestoneCost(1), out.Spent)
	}
}

func TestSpendChips(t *testing.T) {
	g, _, err := engine.Start(engine.Create(1, 1))
	require.NoError(t, err)
	g.Points = g.Milestone
	g, err = engine.EnterShop(g, 3)
	require.NoError(t, err)
	g.Chips = 200

	out := spendChips(g)
	assert.Greater(t, len(out.Bag), len(g.Bag))
	for i, k := range out.Shop.Orbs {
		assert.Greater(t, engine.Price(k.Cost(), out.Shop.PurchaseCounts[i]), out.Chips)
	}
}

func TestStrategy_Validate(t *testing.T) {
	assert.Error(t, Strategy{}.Validate())
	assert.Error(t, Strategy{Name: "x", CashOutBelowHealth: 9}.Validate())
	assert.Error(t, Strategy{Name: "x", StopAtLevel: 8}.Validate())
	assert.NoError(t, Strategy{Name: "x", StopAtLevel: 7}.Validate())

	_, err := Run(Strategy{}, 1, 1)
	assert.Error(t, err)
}

func TestLoadStrategies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
strategies:
  - name: bold
    cash_out_below_health: 1
    stop_at_level: 5
    spend_chips: true
`), 0644))

	strategies, err := LoadStrategies(path)
	require.NoError(t, err)
	require.Len(t, strategies, 1)
	assert.Equal(t, Strategy{Name: "bold", CashOutBelowHealth: 1, StopAtLevel: 5, SpendChips: true}, strategies[0])

	_, err = ParseStrategies([]byte("strategies: []"))
	assert.Error(t, err)
	_, err = ParseStrategies([]byte("strategies:\n  - name: bad\n    stop_at_level: 99\n"))
	assert.Error(t, err)
	_, err = LoadStrategies(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReport_YAML(t *testing.T) {
	report, err := Run(DefaultStrategies()[0], 10, 1)
	require.NoError(t, err)

	data, err := yaml.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "strategy: cautious")
	assert.Contains(t, string(data), "levels_reached:")
}
