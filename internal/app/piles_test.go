package app

import (
	"testing"

	"dutchblitz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycle(t *testing.T) {
	svc := newTestService(30)
	g := startedGame(t, svc)
	p := rig(t, g, "alice", []string{"red_1"}, []string{"blue_1", "blue_2", "blue_3"})
	reserve := ids(p.Reserve)

	evs, err := svc.Cycle(g, "alice")
	require.NoError(t, err)
	assert.Empty(t, evs)

	assert.Equal(t, "alice_blue_3", p.Visible[0].ID, "most recent card stays")
	assert.Equal(t, reserve[0], p.Visible[1].ID)
	assert.Equal(t, reserve[1], p.Visible[2].ID)
	for _, c := range p.Visible {
		assert.True(t, c.FaceUp)
	}

	want := append(append([]string{}, reserve[2:]...), "alice_blue_2", "alice_blue_1")
	assert.Equal(t, want, ids(p.Reserve))
	for _, c := range p.Reserve {
		assert.False(t, c.FaceUp)
	}
	checkInvariants(t, g)
}

func TestCycleRejections(t *testing.T) {
	svc := newTestService(31)
	g := startedGame(t, svc)

	p := rig(t, g, "alice", []string{"red_1"}, []string{"blue_1", "", ""})
	p.Reserve = nil
	_, err := svc.Cycle(g, "alice")
	assert.ErrorIs(t, err, ErrSourceIneligible)

	p = rig(t, g, "bob", []string{"red_1"}, []string{"blue_1", "blue_2", "blue_3"})
	p.Reserve = nil
	_, err = svc.Cycle(g, "bob")
	assert.ErrorIs(t, err, ErrSourceIneligible)

	_, err = svc.Cycle(g, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCycleShortRowWithoutReserve(t *testing.T) {
	svc := newTestService(32)
	g := startedGame(t, svc)
	p := rig(t, g, "alice", []string{"red_1"}, []string{"blue_1", "blue_2", ""})
	p.Recycle, p.Reserve = p.Reserve, nil

	_, err := svc.Cycle(g, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice_blue_1", p.Visible[0].ID)
	assert.Equal(t, "alice_blue_2", p.Visible[1].ID)
	assert.Nil(t, p.Visible[2])
	assert.Empty(t, p.Reserve)
}

func TestDrawFromReserveFillsEmptySlots(t *testing.T) {
	svc := newTestService(33)
	g := startedGame(t, svc)
	p := rig(t, g, "alice", []string{"red_1"}, []string{"", "blue_2", ""})
	reserve := ids(p.Reserve)

	// Filling needs no proximity to the indicator.
	moveTo(t, svc, g, "alice", domain.Point{})
	_, err := svc.DrawFromReserve(g, "alice")
	require.NoError(t, err)
	assert.Equal(t, reserve[0], p.Visible[0].ID)
	assert.Equal(t, reserve[1], p.Visible[2].ID)
	assert.Equal(t, reserve[2:], ids(p.Reserve))
	assert.Empty(t, p.Recycle)

	_, err = svc.DrawFromReserve(g, "alice")
	assert.ErrorIs(t, err, ErrProximityViolation)
}

func TestDrawFromReserveTurnsTrio(t *testing.T) {
	svc := newTestService(34)
	g := startedGame(t, svc)
	p := rig(t, g, "alice", []string{"red_1"}, []string{"blue_1", "blue_2", "blue_3"})
	reserve := ids(p.Reserve)
	moveTo(t, svc, g, "alice", p.Layout.Recycle)

	_, err := svc.DrawFromReserve(g, "alice")
	require.NoError(t, err)
	assert.Equal(t, reserve[:3], ids(p.Recycle))
	assert.False(t, p.Recycle[0].FaceUp)
	assert.False(t, p.Recycle[1].FaceUp)
	assert.True(t, p.Recycle[2].FaceUp)

	_, err = svc.DrawFromReserve(g, "alice")
	require.NoError(t, err)
	assert.Equal(t, reserve[3:6], ids(p.Recycle))
	want := append(append([]string{}, reserve[6:]...), reserve[:3]...)
	assert.Equal(t, want, ids(p.Reserve))
	for _, c := range p.Reserve {
		assert.False(t, c.FaceUp)
	}
	checkInvariants(t, g)
}

func TestDrawFromReserveShortPile(t *testing.T) {
	svc := newTestService(35)
	g := startedGame(t, svc)
	p := rig(t, g, "alice", []string{"red_1"}, []string{"blue_1", "blue_2", "blue_3"})
	moveTo(t, svc, g, "alice", p.Layout.Recycle)

	p.Reserve = p.Reserve[:2]
	_, err := svc.DrawFromReserve(g, "alice")
	require.NoError(t, err)
	require.Len(t, p.Recycle, 2)
	assert.False(t, p.Recycle[0].FaceUp)
	assert.True(t, p.Recycle[1].FaceUp)
	assert.Empty(t, p.Reserve)

	p.Recycle = nil
	_, err = svc.DrawFromReserve(g, "alice")
	assert.ErrorIs(t, err, ErrSourceIneligible)
}
