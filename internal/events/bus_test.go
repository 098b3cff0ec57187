package events

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bidhall/pkg/domain"
)

func newTestBus() *Bus {
	return NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEmitDispatchesToRegisteredHandlers(t *testing.T) {
	bus := newTestBus()
	ctx := context.Background()

	var got []AuctionClosedEvent
	bus.On(AuctionClosed, func(_ context.Context, payload any) {
		got = append(got, payload.(AuctionClosedEvent))
	})

	ev := AuctionClosedEvent{AuctionID: id.NewAuctionID()}
	bus.Emit(ctx, AuctionClosed, ev)

	require.Len(t, got, 1)
	assert.Equal(t, ev.AuctionID, got[0].AuctionID)
}

func TestEmitSkipsOtherEventNames(t *testing.T) {
	bus := newTestBus()

	calls := 0
	bus.On(BidPlaced, func(context.Context, any) { calls++ })

	bus.Emit(context.Background(), AuctionClosed, AuctionClosedEvent{})
	assert.Zero(t, calls)
}

func TestSubscriptionDeregisters(t *testing.T) {
	bus := newTestBus()

	calls := 0
	unsubscribe := bus.On(BidPlaced, func(context.Context, any) { calls++ })

	bus.Emit(context.Background(), BidPlaced, BidPlacedEvent{})
	unsubscribe()
	bus.Emit(context.Background(), BidPlaced, BidPlacedEvent{})

	assert.Equal(t, 1, calls)
}

func TestPanickingHandlerDoesNotStarveOthers(t *testing.T) {
	bus := newTestBus()

	bus.On(BidPlaced, func(context.Context, any) { panic("boom") })
	survived := false
	bus.On(BidPlaced, func(context.Context, any) { survived = true })

	assert.NotPanics(t, func() {
		bus.Emit(context.Background(), BidPlaced, BidPlacedEvent{})
	})
	assert.True(t, survived)
}

func TestEmitWithNoHandlersIsNoOp(t *testing.T) {
	bus := newTestBus()
	assert.NotPanics(t, func() {
		bus.Emit(context.Background(), MemberJoined, MemberJoinedEvent{})
	})
}
