package orb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Complete(t *testing.T) {
	kinds := All()
	assert.Len(t, kinds, 22)
	assert.Equal(t, None, kinds[0])
	assert.Equal(t, StickyBomb, kinds[len(kinds)-1])

	for _, k := range kinds {
		assert.True(t, k.Valid(), "kind %d", int(k))
		assert.NotEmpty(t, k.Name())
		assert.NotEmpty(t, k.Description())
		assert.NotEmpty(t, k.Variant())
	}
	assert.False(t, Kind(99).Valid())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestPredicates_MutuallyExclusive(t *testing.T) {
	for _, k := range All() {
		flags := []bool{
			k.IsNone(), k.IsBomb(), k.IsHealth(), k.IsMultiplier(),
			k.IsPoint(), k.IsMoonrock(), k.IsChips(), k.IsCurse(),
		}
		count := 0
		for _, f := range flags {
			if f {
				count++
			}
		}
		assert.Equal(t, 1, count, "kind %s", k)
	}
}

func TestCategoryValues(t *testing.T) {
	assert.Equal(t, 1, SingleBomb.Value())
	assert.Equal(t, 2, DoubleBomb.Value())
	assert.Equal(t, 3, TripleBomb.Value())
	assert.Equal(t, 3, Health3.Value())
	assert.Equal(t, 150, Multiplier150.Value())
	assert.Equal(t, 9, Point9.Value())
	assert.Equal(t, 40, Moonrock40.Value())
	assert.Equal(t, 15, Chips15.Value())
	assert.True(t, StickyBomb.IsBomb())
	assert.True(t, StickyBomb.IsSticky())
	assert.False(t, SingleBomb.IsSticky())
	assert.Equal(t, DerivedOrbsRemaining, PointsPerOrbRemaining.Info().Derived)
	assert.Equal(t, DerivedBombsPulled, PointsPerBombPulled.Info().Derived)
}

func TestNonPurchasable(t *testing.T) {
	for _, k := range []Kind{None, SingleBomb, DoubleBomb, TripleBomb, StickyBomb, CurseScoreDecrease} {
		assert.Zero(t, k.Cost(), "kind %s", k)
		assert.False(t, k.Purchasable())
	}
}

func TestRarity(t *testing.T) {
	assert.Equal(t, RarityCommon, Point5.Rarity())
	assert.Equal(t, RarityCommon, Chips15.Rarity())
	assert.Equal(t, RarityRare, PointsPerOrbRemaining.Rarity())
	assert.Equal(t, RarityRare, Health2.Rarity())
	assert.Equal(t, RarityCosmic, Health3.Rarity())
	assert.Equal(t, RarityCosmic, Moonrock40.Rarity())
}

func TestPools_MatchRarity(t *testing.T) {
	pools := map[Rarity][]Kind{
		RarityCommon: Common(),
		RarityRare:   Rare(),
		RarityCosmic: Cosmic(),
	}
	for rarity, pool := range pools {
		seen := make(map[Kind]bool)
		for _, k := range pool {
			assert.Equal(t, rarity, k.Rarity(), "kind %s", k)
			assert.True(t, k.Purchasable())
			assert.False(t, seen[k], "duplicate %s", k)
			seen[k] = true
		}
	}
	assert.GreaterOrEqual(t, len(Common()), ShopCommons)
	assert.GreaterOrEqual(t, len(Rare()), ShopRares)
	assert.GreaterOrEqual(t, len(Cosmic()), ShopCosmics)
}

func TestInitial(t *testing.T) {
	bag := Initial()
	assert.Len(t, bag, 11)
	for _, k := range bag {
		assert.False(t, k.IsSticky())
	}
}

func TestShopOffer(t *testing.T) {
	for seed := uint64(0); seed < 200; seed++ {
		offer := ShopOffer(seed)
		require.Len(t, offer, ShopSize)

		counts := map[Rarity]int{}
		seen := make(map[Kind]bool)
		for _, k := range offer {
			require.False(t, seen[k], "seed %d duplicate %s", seed, k)
			seen[k] = true
			counts[k.Rarity()]++
		}
		assert.Equal(t, ShopCommons, counts[RarityCommon])
		assert.Equal(t, ShopRares, counts[RarityRare])
		assert.Equal(t, ShopCosmics, counts[RarityCosmic])
	}
}

func TestShopOffer_Deterministic(t *testing.T) {
	assert.Equal(t, ShopOffer(77), ShopOffer(77))
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "bomb", SingleBomb.Category().String())
	assert.Equal(t, "moonrock", Moonrock40.Category().String())
	assert.Equal(t, "curse", CurseScoreDecrease.Category().String())
	assert.Equal(t, "unknown", Category(99).String())
}
