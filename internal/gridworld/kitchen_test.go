package gridworld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oaiagents/internal/action"
	"oaiagents/internal/agent"
	"oaiagents/internal/model"
)

const (
	n  = action.North
	s  = action.South
	e  = action.East
	w  = action.West
	st = action.Stay
	in = action.Interact
)

func play(t *testing.T, k *Kitchen, script []action.Joint) []StepResult {
	t.Helper()
	out := make([]StepResult, 0, len(script))
	for i, joint := range script {
		res, err := k.Step(joint)
		require.NoError(t, err, "step %d", i)
		out = append(out, res)
	}
	return out
}

func TestKitchenFullDelivery(t *testing.T) {
	k, err := NewKitchen("cramped_room", WithCookTime(2))
	require.NoError(t, err)

	onionRun := []action.Joint{{st, e}, {st, e}, {st, in}, {st, w}, {st, n}, {st, in}}
	script := []action.Joint{{st, e}, {st, in}, {st, w}, {st, n}, {st, in}}
	script = append(script, onionRun...)
	script = append(script, onionRun...)
	script = append(script,
		action.Joint{s, st},
		action.Joint{in, e},
		action.Joint{n, st},
		action.Joint{e, st},
		action.Joint{n, st},
		action.Joint{in, st},
		action.Joint{s, st},
		action.Joint{e, st},
		action.Joint{s, st},
		action.Joint{in, st},
	)

	results := play(t, k, script)
	last := results[len(results)-1]
	assert.Equal(t, float64(DeliveryReward), last.Reward)
	assert.Equal(t, [2]float64{DeliveryReward, 0}, last.Info.SparseRewardByAgent)
	assert.Equal(t, [2]int{model.SubtaskServeSoup, -1}, last.Info.CompletedSubtasks)

	total := 0.0
	for _, r := range results {
		total += r.Reward
	}
	assert.Equal(t, float64(DeliveryReward), total)

	state := k.State()
	assert.Empty(t, state.Objects)
	assert.Nil(t, state.Players[0].HeldObject)
	assert.Equal(t, len(script), state.Timestep)
}

func TestKitchenForcedCoordinationHandoff(t *testing.T) {
	k, err := NewKitchen("forced_coordination")
	require.NoError(t, err)

	results := play(t, k, []action.Joint{
		{st, w},  // seat 1 faces the onion dispenser
		{st, in}, // picks an onion
		{st, e},  // faces the shared counter
		{st, in}, // puts the onion down
		{s, st},  // seat 0 walks down
		{w, st},  // faces the counter
		{in, st}, // picks the onion up
		{n, st},
		{n, st},  // faces the pot
		{in, st}, // first onion in
	})

	assert.Equal(t, model.SubtaskGetOnionFromDispenser, results[1].Info.CompletedSubtasks[1])
	assert.Equal(t, model.SubtaskPutOnionCloser, results[3].Info.CompletedSubtasks[1])
	assert.Equal(t, model.SubtaskGetOnionFromCounter, results[6].Info.CompletedSubtasks[0])
	assert.Equal(t, model.SubtaskPutOnionInPot, results[9].Info.CompletedSubtasks[0])

	state := k.State()
	require.Len(t, state.Objects, 1)
	assert.Equal(t, model.ObjectSoup, state.Objects[0].Name)
	assert.Equal(t, 1, state.Objects[0].Ingredients)
	assert.Equal(t, model.Position{3, 0}, state.Objects[0].Position)
}

func TestKitchenBlocksCollisions(t *testing.T) {
	k, err := NewKitchen("cramped_room")
	require.NoError(t, err)
	// seat 0 starts at (1,2), seat 1 at (3,1)
	play(t, k, []action.Joint{{n, w}})
	state := k.State()
	assert.Equal(t, model.Position{1, 1}, state.Players[0].Position)
	assert.Equal(t, model.Position{2, 1}, state.Players[1].Position)

	// seat 0 tries to enter seat 1's cell while seat 1 stays
	play(t, k, []action.Joint{{e, st}})
	state = k.State()
	assert.Equal(t, model.Position{1, 1}, state.Players[0].Position)
	assert.Equal(t, model.Position{1, 0}, state.Players[0].Orientation)

	// swap attempt
	play(t, k, []action.Joint{{e, w}})
	state = k.State()
	assert.Equal(t, model.Position{1, 1}, state.Players[0].Position)
	assert.Equal(t, model.Position{2, 1}, state.Players[1].Position)
}

func TestKitchenHorizonAndReset(t *testing.T) {
	k, err := NewKitchen("forced_coordination", WithHorizon(2))
	require.NoError(t, err)

	res := play(t, k, []action.Joint{{st, st}, {in, st}})
	assert.False(t, res[0].Done)
	assert.True(t, res[1].Done)
	assert.True(t, k.Done())

	_, err = k.Step(action.Joint{st, st})
	assert.ErrorIs(t, err, ErrEpisodeDone)

	state, err := k.Reset()
	require.NoError(t, err)
	assert.Equal(t, 0, state.Timestep)
	assert.False(t, k.Done())
}

func TestKitchenObserveSignals(t *testing.T) {
	k, err := NewKitchen("forced_coordination")
	require.NoError(t, err)

	obs, err := k.Observe(1, true)
	require.NoError(t, err)
	assert.False(t, obs.Signaled(model.ObsPlayerCompletedSubtasks))
	assert.Equal(t, 1.0, obs[model.ObsSubtaskMask][model.SubtaskGetOnionFromDispenser])

	play(t, k, []action.Joint{{st, w}, {st, in}})
	obs, err = k.Observe(1, false)
	require.NoError(t, err)
	assert.Equal(t, model.OneHot(model.NumSubtasks, model.SubtaskGetOnionFromDispenser), obs[model.ObsPlayerCompletedSubtasks])
	assert.Equal(t, 1.0, obs[model.ObsSubtaskMask][model.SubtaskPutOnionCloser])
	assert.Equal(t, 0.0, obs[model.ObsSubtaskMask][model.SubtaskGetOnionFromDispenser])

	teammateView, err := k.Observe(0, false)
	require.NoError(t, err)
	assert.True(t, teammateView.Signaled(model.ObsTeammateCompletedSubtasks))
	assert.False(t, teammateView.Signaled(model.ObsPlayerCompletedSubtasks))
}

func TestKitchenStepSeatUsesTeammate(t *testing.T) {
	k, err := NewKitchen("forced_coordination")
	require.NoError(t, err)

	joint, _, err := k.StepSeat(0, action.South)
	require.NoError(t, err)
	assert.Equal(t, action.Joint{action.South, action.Stay}, joint)

	mate, err := agent.NewScriptedAgent("mate", action.West)
	require.NoError(t, err)
	k.SetTeammate(mate)
	joint, _, err = k.StepSeat(0, action.North)
	require.NoError(t, err)
	assert.Equal(t, action.Joint{action.North, action.West}, joint)
	seat, ok := mate.Seat()
	assert.True(t, ok)
	assert.Equal(t, 1, seat)
}

func TestLayoutRegistry(t *testing.T) {
	resetLayoutsForTests()
	t.Cleanup(resetLayoutsForTests)

	assert.Equal(t, []string{"asymmetric_advantages", "cramped_room", "forced_coordination"}, ListLayouts())
	assert.ErrorIs(t, RegisterLayout("cramped_room", model.Grid{"X1X2X"}), ErrLayoutExists)
	assert.Error(t, RegisterLayout("no_starts", model.Grid{"XXX"}))
	require.NoError(t, RegisterLayout("corridor", model.Grid{"X12X"}))

	_, err := NewKitchen("missing")
	assert.ErrorIs(t, err, ErrLayoutNotFound)
}
