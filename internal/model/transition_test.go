package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionJSONRoundTrip(t *testing.T) {
	held := ObjectState{Name: ObjectOnion, Position: Position{1, 1}}
	in := Transition{
		State: State{
			LayoutName: "cramped_room",
			Players: []PlayerState{
				{Position: Position{1, 1}, Orientation: Position{0, -1}, HeldObject: &held},
				{Position: Position{3, 1}, Orientation: Position{0, 1}},
			},
			Objects:  []ObjectState{{Name: ObjectSoup, Position: Position{2, 0}, Ingredients: 2}},
			Timestep: 7,
		},
		JointAction: EncodedJoint(`[[0,-1],"interact"]`),
		Reward:      20,
		TimeLeft:    39.5,
		Score:       20,
		TimeElapsed: 0.5,
		Tick:        15,
		Layout:      Grid{"XXPXX", "O  2O", "X1  X", "XDXSX"},
		LayoutName:  "cramped_room",
		TrialID:     3,
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"joint_action":[[0,-1],"interact"]`)

	var out Transition
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestTransitionDecodesLegacyEncodings(t *testing.T) {
	legacy := `{
		"state": "{\"layout_name\":\"forced_coordination\",\"players\":[],\"objects\":[],\"timestep\":4}",
		"joint_action": "[[1, 0], \"INTERACT\"]",
		"reward": 0,
		"layout": [["X","X"],["O"," "]],
		"layout_name": "forced_coordination",
		"trial_id": 1,
		"cur_gameloop": 4
	}`

	var out Transition
	require.NoError(t, json.Unmarshal([]byte(legacy), &out))
	assert.Equal(t, 4, out.State.Timestep)
	assert.Equal(t, "forced_coordination", out.State.LayoutName)
	assert.Equal(t, EncodedJoint(`[[1, 0], "INTERACT"]`), out.JointAction)
	assert.Equal(t, Grid{"XX", "O "}, out.Layout)
}

func TestTimeFields(t *testing.T) {
	assert.Equal(t, 40.0, TimeLeft(1200, 0, 30))
	assert.Equal(t, 0.0, TimeLeft(1200, 1200, 30))
	assert.Equal(t, 0.0, TimeLeft(1200, 1500, 30))
	assert.Equal(t, 2.0, TimeElapsed(60, 30))
	assert.Equal(t, 0.0, TimeElapsed(60, 0))
}

func TestStateCloneDoesNotAlias(t *testing.T) {
	held := ObjectState{Name: ObjectDish}
	s := State{Players: []PlayerState{{HeldObject: &held}}, Objects: []ObjectState{{Name: ObjectOnion}}}
	c := s.Clone()
	c.Players[0].HeldObject.Name = ObjectSoup
	c.Objects[0].Name = ObjectDish
	assert.Equal(t, ObjectDish, s.Players[0].HeldObject.Name)
	assert.Equal(t, ObjectOnion, s.Objects[0].Name)
}

func TestObservationSignaled(t *testing.T) {
	obs := Observation{
		ObsPlayerCompletedSubtasks: OneHot(NumSubtasks, SubtaskGetSoup),
		ObsSubtaskMask:             make([]float64, NumSubtasks),
	}
	assert.True(t, obs.Signaled(ObsPlayerCompletedSubtasks))
	assert.False(t, obs.Signaled(ObsSubtaskMask))
	assert.False(t, obs.Signaled(ObsCurrentSubtask))

	c := obs.Clone()
	c[ObsPlayerCompletedSubtasks][SubtaskGetSoup] = 0
	assert.True(t, obs.Signaled(ObsPlayerCompletedSubtasks))
}
