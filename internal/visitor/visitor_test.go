package visitor

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WALKERIS/visionrpweb/internal/domain"
	"github.com/WALKERIS/visionrpweb/internal/identity"
)

func TestFlashes_PoppedOnce(t *testing.T) {
	v := New(NewID(), nil, time.Now())
	v.AddFlash(FlashSuccess, "Successfully signed in!")
	v.AddFlash(FlashError, "Error signing out. Please try again.")

	got := v.PopFlashes()
	require.Len(t, got, 2)
	assert.Equal(t, FlashSuccess, got[0].Kind)
	assert.Equal(t, "Error signing out. Please try again.", got[1].Message)
	assert.Empty(t, v.PopFlashes())
}

func TestLogin_StateMustMatch(t *testing.T) {
	v := New(NewID(), nil, time.Now())

	_, err := v.CompleteLogin("anything")
	assert.ErrorIs(t, err, identity.ErrInvalidState)

	v.BeginLogin("state-1", "verifier-1")
	_, err = v.CompleteLogin("state-2")
	assert.ErrorIs(t, err, identity.ErrInvalidState)

	// consumed by the failed attempt
	_, err = v.CompleteLogin("state-1")
	assert.ErrorIs(t, err, identity.ErrInvalidState)

	v.BeginLogin("state-3", "verifier-3")
	verifier, err := v.CompleteLogin("state-3")
	require.NoError(t, err)
	assert.Equal(t, "verifier-3", verifier)
}

func TestClose_ReleasesSubscriptions(t *testing.T) {
	v := New(NewID(), nil, time.Now())

	var cartEvents, identityEvents int
	v.OnClose(v.Cart.Subscribe(func(domain.CartSnapshot) { cartEvents++ }))
	v.OnClose(v.Identity.Subscribe(func(identity.Change) { identityEvents++ }))

	_, err := v.Cart.AddItem(domain.Vehicle{ID: "1", Name: "Adder Supercar", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	v.Identity.SignIn(domain.User{ProviderID: "1"}, nil)
	require.Equal(t, 1, cartEvents)
	require.Equal(t, 1, identityEvents)

	v.Close()
	v.Close()

	_, err = v.Cart.AddItem(domain.Vehicle{ID: "1", Name: "Adder Supercar", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	v.Identity.Notify(identity.Change{Event: identity.SignedOut})

	assert.Equal(t, 1, cartEvents)
	assert.Equal(t, 1, identityEvents)
	assert.Equal(t, 0, v.Cart.Listeners())
	assert.Equal(t, 0, v.Identity.Listeners())
}

func TestOnClose_AfterCloseRunsImmediately(t *testing.T) {
	v := New(NewID(), nil, time.Now())
	v.Close()

	ran := false
	v.OnClose(func() { ran = true })
	assert.True(t, ran)
}

func TestOnClose_ReverseOrder(t *testing.T) {
	v := New(NewID(), nil, time.Now())
	var order []int
	v.OnClose(func() { order = append(order, 1) })
	v.OnClose(func() { order = append(order, 2) })

	v.Close()
	assert.Equal(t, []int{2, 1}, order)
}

func TestDone_ClosedOnCloseWithoutClosers(t *testing.T) {
	v := New(NewID(), nil, time.Now())

	for range 3 {
		select {
		case <-v.Done():
			t.Fatal("done before close")
		default:
		}
	}
	assert.Empty(t, v.closers, "waiting on Done registers nothing")

	v.Close()
	v.Close()
	select {
	case <-v.Done():
	default:
		t.Fatal("done not closed")
	}
}
