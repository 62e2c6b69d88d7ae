package cart

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

var (
	adder  = domain.Vehicle{ID: "1", Name: "Adder Supercar", Type: domain.VehicleNew, Price: decimal.NewFromInt(1_000_000)}
	sultan = domain.Vehicle{ID: "2", Name: "Sultan RS Classic", Type: domain.VehicleUsed, Price: decimal.NewFromInt(450_000)}
	comet  = domain.Vehicle{ID: "3", Name: "Comet Safari", Type: domain.VehicleNew, Price: decimal.NewFromInt(750_000)}
)

func TestAddItem_SameIDIncrements(t *testing.T) {
	s := NewStore()

	_, err := s.AddItem(adder)
	require.NoError(t, err)
	snap, err := s.AddItem(adder)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(2_000_000).Equal(s.Total()))
}

func TestAddItem_IgnoresPayloadDrift(t *testing.T) {
	s := NewStore()
	_, err := s.AddItem(sultan)
	require.NoError(t, err)

	drifted := sultan
	drifted.Name = "Renamed"
	drifted.Price = decimal.NewFromInt(1)
	snap, err := s.AddItem(drifted)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "Sultan RS Classic", snap.Lines[0].Name)
	assert.True(t, decimal.NewFromInt(900_000).Equal(snap.Total))
}

func TestAddItem_Invalid(t *testing.T) {
	s := NewStore()

	_, err := s.AddItem(domain.Vehicle{Name: "no id"})
	assert.ErrorIs(t, err, ErrInvalidItem)
	assert.Equal(t, 0, s.Count())
}

func TestUpdateQuantity_NegativeClampsAndRemoves(t *testing.T) {
	s := NewStore()
	_, err := s.AddItem(adder)
	require.NoError(t, err)
	_, err = s.AddItem(comet)
	require.NoError(t, err)

	snap, err := s.UpdateQuantity("1", -5)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, 1, s.Count())
	assert.True(t, decimal.NewFromInt(750_000).Equal(s.Total()))
	for _, l := range snap.Lines {
		assert.NotEqual(t, "1", l.VehicleID)
	}
}

func TestUpdateQuantity_UnknownItem(t *testing.T) {
	s := NewStore()

	_, err := s.UpdateQuantity("9", 3)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveItem_Unconditional(t *testing.T) {
	s := NewStore()
	_, err := s.AddItem(adder)
	require.NoError(t, err)
	_, err = s.AddItem(adder)
	require.NoError(t, err)

	snap, err := s.RemoveItem("1")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())

	_, err = s.RemoveItem("1")
	assert.NoError(t, err)
}

func TestTotal_MatchesLinesForRandomSequences(t *testing.T) {
	vehicles := []domain.Vehicle{adder, sultan, comet}
	rng := rand.New(rand.NewPCG(1, 2))

	for run := 0; run < 50; run++ {
		s := NewStore()
		for step := 0; step < 40; step++ {
			v := vehicles[rng.IntN(len(vehicles))]
			switch rng.IntN(3) {
			case 0:
				_, _ = s.AddItem(v)
			case 1:
				_, _ = s.UpdateQuantity(v.ID, rng.IntN(7)-2)
			case 2:
				_, _ = s.RemoveItem(v.ID)
			}

			snap := s.Snapshot()
			want := decimal.Zero
			for _, l := range snap.Lines {
				require.Positive(t, l.Quantity)
				want = want.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
			}
			require.True(t, want.Equal(s.Total()), "run %d step %d", run, step)
			require.Equal(t, len(snap.Lines), s.Count())
		}
	}
}

func TestClear(t *testing.T) {
	s := NewStore()
	_, err := s.AddItem(adder)
	require.NoError(t, err)

	snap, err := s.Clear()
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
	assert.True(t, decimal.Zero.Equal(s.Total()))
}

func TestSubscribe_NotifiedInOrderAfterEachMutation(t *testing.T) {
	s := NewStore()
	var versions []uint64
	var counts []int
	unsubscribe := s.Subscribe(func(snap domain.CartSnapshot) {
		versions = append(versions, snap.Version)
		counts = append(counts, snap.Count)
		// listeners may read the store
		assert.Equal(t, snap.Count, s.Count())
	})

	_, _ = s.AddItem(adder)
	_, _ = s.AddItem(sultan)
	_, _ = s.UpdateQuantity("1", 0)

	assert.Equal(t, []uint64{1, 2, 3}, versions)
	assert.Equal(t, []int{1, 2, 1}, counts)

	unsubscribe()
	unsubscribe()
	_, _ = s.Clear()
	assert.Len(t, versions, 3)
	assert.Equal(t, 0, s.Listeners())
}

func TestSubscribe_FailedMutationDoesNotNotify(t *testing.T) {
	s := NewStore()
	calls := 0
	s.Subscribe(func(domain.CartSnapshot) { calls++ })

	_, err := s.UpdateQuantity("missing", 1)
	require.ErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, 0, calls)
}

func TestSubscribe_ConcurrentMutationsSeeIncreasingVersions(t *testing.T) {
	s := NewStore()
	var mu sync.Mutex
	var last uint64
	ordered := true
	s.Subscribe(func(snap domain.CartSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		if snap.Version <= last {
			ordered = false
		}
		last = snap.Version
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddItem(adder)
		}()
	}
	wg.Wait()

	assert.True(t, ordered)
	assert.Equal(t, uint64(20), last)
	require.Len(t, s.Snapshot().Lines, 1)
	assert.Equal(t, 20, s.Snapshot().Lines[0].Quantity)
}

func TestLock_BlocksMutationsUntilUnlocked(t *testing.T) {
	s := NewStore()
	_, err := s.AddItem(adder)
	require.NoError(t, err)

	frozen := s.Lock()
	assert.True(t, frozen.Locked)

	_, err = s.AddItem(sultan)
	assert.ErrorIs(t, err, ErrCartLocked)
	_, err = s.UpdateQuantity("1", 5)
	assert.ErrorIs(t, err, ErrCartLocked)
	_, err = s.RemoveItem("1")
	assert.ErrorIs(t, err, ErrCartLocked)
	_, err = s.Clear()
	assert.ErrorIs(t, err, ErrCartLocked)
	assert.True(t, frozen.Total.Equal(s.Total()))

	s.Unlock()
	_, err = s.AddItem(sultan)
	assert.NoError(t, err)
}

func TestCompleteCheckout_ClearsAndUnlocks(t *testing.T) {
	s := NewStore()
	_, _ = s.AddItem(adder)
	s.Lock()

	snap := s.CompleteCheckout()
	assert.True(t, snap.IsEmpty())
	assert.False(t, snap.Locked)

	_, err := s.AddItem(comet)
	assert.NoError(t, err)
}

func TestRestore_OnlyIntoEmptyCart(t *testing.T) {
	s := NewStore()
	snap, err := s.Restore([]domain.CartLine{
		{VehicleID: "1", Name: "Adder Supercar", Price: decimal.NewFromInt(1_000_000), Quantity: 2},
		{VehicleID: "2", Name: "Sultan RS Classic", Price: decimal.NewFromInt(450_000), Quantity: 0},
	})
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.True(t, decimal.NewFromInt(2_000_000).Equal(snap.Total))

	snap, err = s.Restore([]domain.CartLine{{VehicleID: "3", Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "1", snap.Lines[0].VehicleID)
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := NewStore()
	_, _ = s.AddItem(adder)

	snap := s.Snapshot()
	snap.Lines[0].Quantity = 99

	assert.Equal(t, 1, s.Snapshot().Lines[0].Quantity)
}
