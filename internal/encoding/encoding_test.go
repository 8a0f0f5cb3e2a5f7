package encoding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oaiagents/internal/model"
)

func sampleState() model.State {
	onion := model.ObjectState{Name: model.ObjectOnion}
	return model.State{
		LayoutName: "cramped_room",
		Players: []model.PlayerState{
			{Position: model.Position{1, 2}, Orientation: model.Position{0, -1}, HeldObject: &onion},
			{Position: model.Position{3, 1}, Orientation: model.Position{1, 0}},
		},
		Objects: []model.ObjectState{
			{Name: model.ObjectSoup, Position: model.Position{2, 0}, Ingredients: 2},
			{Name: model.ObjectDish, Position: model.Position{0, 1}},
		},
	}
}

func TestFlatEncodingPutsOwnSeatFirst(t *testing.T) {
	fn, err := Resolve(Flat)
	require.NoError(t, err)

	obs0, err := fn(sampleState(), 0)
	require.NoError(t, err)
	obs1, err := fn(sampleState(), 1)
	require.NoError(t, err)

	v0 := obs0[model.ObsAgent]
	v1 := obs1[model.ObsAgent]
	require.Len(t, v0, FlatSize)
	assert.Equal(t, []float64{1, 2, 0, -1, 0, 1, 0, 0}, v0[:playerFeatures])
	assert.Equal(t, v0[:playerFeatures], v1[playerFeatures:2*playerFeatures])
	assert.Equal(t, []float64{2, 1, 2}, v0[2*playerFeatures:])
}

func TestRelativeEncodingOffsetsTeammate(t *testing.T) {
	fn, err := Resolve(Relative)
	require.NoError(t, err)
	obs, err := fn(sampleState(), 0)
	require.NoError(t, err)
	v := obs[model.ObsAgent]
	assert.Equal(t, []float64{2, -1}, v[playerFeatures:playerFeatures+2])
}

func TestEncodingRejectsBadSeat(t *testing.T) {
	fn, err := Resolve(Flat)
	require.NoError(t, err)
	_, err = fn(sampleState(), 2)
	assert.ErrorIs(t, err, ErrSeat)
}

func TestRegistryLifecycle(t *testing.T) {
	resetRegistryForTests()
	t.Cleanup(resetRegistryForTests)

	custom := Spec{
		Name: "custom",
		Func: encodeFlat,
		Size: FlatSize,
		Compatible: func(layout string) error {
			if layout != "cramped_room" {
				return errors.New("needs cramped_room")
			}
			return nil
		},
	}
	require.NoError(t, Register(custom))
	assert.ErrorIs(t, Register(custom), ErrEncodingExists)
	assert.Equal(t, []string{"custom", Flat, Relative}, List())

	_, err := ResolveForLayout("custom", "cramped_room")
	assert.NoError(t, err)
	_, err = ResolveForLayout("custom", "forced_coordination")
	assert.ErrorIs(t, err, ErrIncompatible)

	_, err = Resolve("missing")
	assert.ErrorIs(t, err, ErrEncodingNotFound)

	err = Register(Spec{Name: "v9", Func: encodeFlat, SchemaVersion: 9, CodecVersion: 1})
	assert.ErrorIs(t, err, ErrVersionMismatch)

	size, err := Size(Flat)
	require.NoError(t, err)
	assert.Equal(t, FlatSize, size)
}
