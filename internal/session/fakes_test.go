package session

import (
	"context"
	"errors"

	"oaiagents/internal/action"
	"oaiagents/internal/agent"
	"oaiagents/internal/gridworld"
	"oaiagents/internal/model"
	"oaiagents/internal/policy"
	"oaiagents/internal/visual"
)

// fakeEnv is a deterministic two-seat environment whose seat 0 earns
// rewards[t] on step t.
type fakeEnv struct {
	layout   string
	horizon  int
	rewards  []float64
	failAt   int
	t        int
	resets   int
	steps    []action.Joint
	teammate agent.Agent
}

func newFakeEnv(horizon int, rewards ...float64) *fakeEnv {
	return &fakeEnv{layout: "cramped_room", horizon: horizon, rewards: rewards, failAt: -1}
}

func (e *fakeEnv) LayoutName() string { return e.layout }
func (e *fakeEnv) Grid() model.Grid   { return model.Grid{"XXPXX", "O  2O", "X1  X", "XDXSX"} }
func (e *fakeEnv) Horizon() int       { return e.horizon }
func (e *fakeEnv) Done() bool         { return e.t >= e.horizon }

func (e *fakeEnv) Reset() (model.State, error) {
	e.t = 0
	e.resets++
	return e.State(), nil
}

func (e *fakeEnv) State() model.State {
	return model.State{
		LayoutName: e.layout,
		Players: []model.PlayerState{
			{Position: model.Position{1, 2}, Orientation: model.Position{0, -1}},
			{Position: model.Position{3, 1}, Orientation: model.Position{0, -1}},
		},
		Objects:  []model.ObjectState{},
		Timestep: e.t,
	}
}

func (e *fakeEnv) Step(joint action.Joint) (gridworld.StepResult, error) {
	if e.Done() {
		return gridworld.StepResult{}, gridworld.ErrEpisodeDone
	}
	if e.t == e.failAt {
		return gridworld.StepResult{}, errors.New("simulator fault")
	}
	r := 0.0
	if e.t < len(e.rewards) {
		r = e.rewards[e.t]
	}
	e.steps = append(e.steps, joint)
	e.t++
	return gridworld.StepResult{
		Reward: r,
		Done:   e.Done(),
		Info:   gridworld.Info{SparseRewardByAgent: [2]float64{r, 0}, CompletedSubtasks: [2]int{-1, -1}},
	}, nil
}

func (e *fakeEnv) Observe(seat int, onReset bool) (model.Observation, error) {
	return model.Observation{model.ObsAgent: []float64{float64(seat), float64(e.t)}}, nil
}

func (e *fakeEnv) SetTeammate(a agent.Agent) { e.teammate = a }

func (e *fakeEnv) StepSeat(seat int, act action.Action) (action.Joint, gridworld.StepResult, error) {
	var joint action.Joint
	joint[seat] = act
	joint[1-seat] = action.Stay
	res, err := e.Step(joint)
	return joint, res, err
}

// scriptedInput replays joint actions seat by seat and quits when the
// script runs out.
type scriptedInput struct {
	joints []action.Joint
	next   int
	calls  []int
}

func (s *scriptedInput) Next(ctx context.Context, seat int) (action.Action, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.calls = append(s.calls, seat)
	if s.next >= len(s.joints) {
		return 0, ErrQuit
	}
	act := s.joints[s.next][seat]
	if seat == 1 {
		s.next++
	}
	return act, nil
}

type recordingDisplay struct {
	frames []visual.Frame
	closed int
}

func (r *recordingDisplay) Show(frame visual.Frame) error {
	r.frames = append(r.frames, frame)
	return nil
}

func (r *recordingDisplay) Close() error {
	r.closed++
	return nil
}

// recurrentStub counts its calls in the hidden state it returns.
type recurrentStub struct {
	seat     *int
	starts   []bool
	received []policy.State
}

func (s *recurrentStub) Name() string             { return "stub" }
func (s *recurrentStub) Type() string             { return "stub" }
func (s *recurrentStub) EncodingFn() string       { return "flat" }
func (s *recurrentStub) Bind(seat int)            { s.seat = &seat }
func (s *recurrentStub) Device() string           { return agent.DeviceCPU }
func (s *recurrentStub) To(string) error          { return nil }
func (s *recurrentStub) Snapshot() agent.Snapshot { return agent.Snapshot{} }

func (s *recurrentStub) Seat() (int, bool) {
	if s.seat == nil {
		return 0, false
	}
	return *s.seat, true
}

func (s *recurrentStub) Predict(_ model.Observation, state policy.State, episodeStart, _ bool) (int, policy.State, error) {
	if s.seat == nil {
		return 0, nil, agent.ErrUnboundAgent
	}
	s.starts = append(s.starts, episodeStart)
	s.received = append(s.received, state.Clone())
	if episodeStart {
		state = policy.State{0}
	}
	return action.East.Index(), policy.State{state[0] + 1}, nil
}

func (s *recurrentStub) Distribution(model.Observation) (policy.Distribution, error) {
	return policy.Distribution{0, 0, 1, 0, 0, 0}, nil
}
