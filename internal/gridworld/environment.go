// Package gridworld provides the two-seat kitchen environment sessions drive
// and the interface the session layer consumes.
package gridworld

import (
	"oaiagents/internal/action"
	"oaiagents/internal/agent"
	"oaiagents/internal/model"
)

// Info carries per-seat detail of one step.
type Info struct {
	SparseRewardByAgent [2]float64
	// CompletedSubtasks holds the subtask each seat finished this step, or -1.
	CompletedSubtasks [2]int
}

// SparseTotal is the sum of the per-seat sparse rewards.
func (i Info) SparseTotal() float64 {
	return i.SparseRewardByAgent[0] + i.SparseRewardByAgent[1]
}

type StepResult struct {
	Reward float64
	Done   bool
	Info   Info
}

// Environment is a two-seat cooperative game.
type Environment interface {
	LayoutName() string
	Grid() model.Grid
	Horizon() int
	Reset() (model.State, error)
	Step(joint action.Joint) (StepResult, error)
	// State is a copy of the current snapshot.
	State() model.State
	Done() bool
	// Observe encodes the state for seat. onReset marks the first
	// observation of an episode, which carries no completion signals.
	Observe(seat int, onReset bool) (model.Observation, error)
	// SetTeammate binds the agent that plays the seat StepSeat leaves open.
	SetTeammate(a agent.Agent)
	StepSeat(seat int, act action.Action) (action.Joint, StepResult, error)
}
